package sandbox

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(key.PublicKey, "ed25519:"))
	require.True(t, strings.HasPrefix(key.PrivateKey, "ed25519:"))

	pub, err := base58.Decode(strings.TrimPrefix(key.PublicKey, "ed25519:"))
	require.NoError(t, err)
	assert.Len(t, pub, 32)

	priv, err := base58.Decode(strings.TrimPrefix(key.PrivateKey, "ed25519:"))
	require.NoError(t, err)
	assert.Len(t, priv, 64)

	// The private key embeds the public key in its second half.
	assert.Equal(t, pub, priv[32:])
}

func TestGenerateKeyPairUnique(t *testing.T) {
	a, err := GenerateKeyPair()
	require.NoError(t, err)
	b, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.NotEqual(t, a.PrivateKey, b.PrivateKey)
}

func TestNewRandomAccount(t *testing.T) {
	acct, err := NewRandomAccount()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(acct.AccountID, "sandbox-genesis-dev-acc-"))
	assert.Equal(t, DefaultGenesisBalance(), acct.Balance)
	assert.NotEmpty(t, acct.PublicKey)
	assert.NotEmpty(t, acct.PrivateKey)
}

func TestDefaultGenesisBalance(t *testing.T) {
	// 10,000 NEAR at 10^24 yocto each.
	assert.Equal(t, "10000000000000000000000000000", DefaultGenesisBalance().String())

	// Fresh value every call, so callers can't corrupt the default.
	a, b := DefaultGenesisBalance(), DefaultGenesisBalance()
	assert.NotSame(t, a, b)
}

func TestDefaultAccount(t *testing.T) {
	acct := defaultAccount()
	assert.Equal(t, DefaultGenesisAccount, acct.AccountID)
	assert.Equal(t, DefaultGenesisAccountPublicKey, acct.PublicKey)
	assert.Equal(t, DefaultGenesisAccountPrivateKey, acct.PrivateKey)
}
