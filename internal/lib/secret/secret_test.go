package secret

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat(string(rune(b)), 32)))
}

func TestBox_SealOpen(t *testing.T) {
	box, err := New(testKey('k'))
	require.NoError(t, err)
	require.True(t, box.Enabled())

	sealed, err := box.Seal("sk_test_123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, prefix))
	assert.NotContains(t, sealed, "sk_test_123")

	again, err := box.Seal("sk_test_123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ between calls")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", plain)
}

func TestBox_Passthrough(t *testing.T) {
	box, err := New("")
	require.NoError(t, err)
	assert.False(t, box.Enabled())

	sealed, err := box.Seal("sk_test_123")
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", sealed)

	plain, err := box.Open("sk_test_123")
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", plain)
}

func TestBox_OpenLegacyPlaintext(t *testing.T) {
	box, err := New(testKey('k'))
	require.NoError(t, err)

	plain, err := box.Open("sk_live_legacy")
	require.NoError(t, err)
	assert.Equal(t, "sk_live_legacy", plain)

	empty, err := box.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBox_OpenFailures(t *testing.T) {
	box, err := New(testKey('k'))
	require.NoError(t, err)
	sealed, err := box.Seal("sk_test_123")
	require.NoError(t, err)

	other, err := New(testKey('x'))
	require.NoError(t, err)
	noKey, err := New("")
	require.NoError(t, err)

	tests := []struct {
		name  string
		box   *Box
		value string
	}{
		{name: "wrong key", box: other, value: sealed},
		{name: "no key", box: noKey, value: sealed},
		{name: "bad base64", box: box, value: prefix + "%%%"},
		{name: "too short", box: box, value: prefix + base64.StdEncoding.EncodeToString([]byte("abc"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.box.Open(tt.value)
			assert.ErrorIs(t, err, ErrDecrypt)
		})
	}
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New("not-base64!")
	assert.Error(t, err)

	_, err = New(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}
