package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialBox_RoundTrip(t *testing.T) {
	box, err := NewCredentialBox("a-long-enough-secret")
	require.NoError(t, err)

	sealed, err := box.Seal("router-pass")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "router-pass")

	again, err := box.Seal("router-pass")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "router-pass", plain)
}

func TestCredentialBox_RejectsTampering(t *testing.T) {
	box, err := NewCredentialBox("a-long-enough-secret")
	require.NoError(t, err)
	other, err := NewCredentialBox("a-different-secret")
	require.NoError(t, err)

	sealed, err := box.Seal("router-pass")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrCredentialCorrupt)

	_, err = box.Open("!!not-base64!!")
	assert.ErrorIs(t, err, ErrCredentialCorrupt)

	_, err = box.Open("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrCredentialCorrupt)

	_, err = NewCredentialBox("")
	assert.ErrorIs(t, err, ErrCredentialSecret)
}
