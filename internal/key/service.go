// Package key provides decryption-key lookup for ContentProtection-guarded
// Representations, keyed by key ID (KID) rather than by channel, the way
// add_decryption_key(kid, key) registers them one at a time instead of
// through a channel config file.
package key

import "fmt"

// Service holds every decryption key registered for a download and is safe
// for concurrent reads once built.
type Service struct {
	keysByKID map[string][]byte
}

// KeyPair is one (kid, key) registration, matching dashmpd.DecryptionKey.
type KeyPair struct {
	KID string
	Key []byte
}

// NewService builds a Service from the keys a Downloader was configured
// with via AddDecryptionKey.
func NewService(keys []KeyPair) (*Service, error) {
	byKID := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if len(k.Key) == 0 {
			continue
		}
		if _, exists := byKID[k.KID]; exists {
			return nil, fmt.Errorf("duplicate decryption key registered for kid %s", k.KID)
		}
		byKID[k.KID] = k.Key
	}
	return &Service{keysByKID: byKID}, nil
}

// KeyForKID retrieves the key registered for kid, if any.
func (s *Service) KeyForKID(kid string) ([]byte, bool) {
	key, found := s.keysByKID[kid]
	return key, found
}
