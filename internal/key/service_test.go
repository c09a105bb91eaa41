package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceIndexesByKID(t *testing.T) {
	svc, err := NewService([]KeyPair{
		{KID: "abc123", Key: []byte{0x01}},
		{KID: "def456", Key: []byte{0x02}},
	})
	require.NoError(t, err)

	k, found := svc.KeyForKID("abc123")
	require.True(t, found)
	assert.Equal(t, []byte{0x01}, k)

	_, found = svc.KeyForKID("missing")
	assert.False(t, found)
}

func TestNewServiceRejectsDuplicateKID(t *testing.T) {
	_, err := NewService([]KeyPair{
		{KID: "abc123", Key: []byte{0x01}},
		{KID: "abc123", Key: []byte{0x02}},
	})
	assert.Error(t, err)
}

func TestNewServiceSkipsEmptyKeys(t *testing.T) {
	svc, err := NewService([]KeyPair{{KID: "abc123", Key: nil}})
	require.NoError(t, err)
	_, found := svc.KeyForKID("abc123")
	assert.False(t, found)
}
