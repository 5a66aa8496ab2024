package sandbox

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"github.com/mr-tron/base58"
)

// The genesis account every sandbox ships with. Its keys are fixed and
// public, which is the point: tests sign with them out of the box.
const (
	DefaultGenesisAccount           = "sandbox"
	DefaultGenesisAccountPublicKey  = "ed25519:5BGSaf6YjVm7565VzWQHNxoyEjwr3jUpRJSGjREvU9dB"
	DefaultGenesisAccountPrivateKey = "ed25519:3tgdk2wPraJzT4nsTuf86UX41xgPNk3MHnq8epARMdBNs29AFEztAuaQ7iHddDfXG9F2RzV1XNQYgJyAyoW51UBB"
)

// DefaultGenesisBalance returns 10,000 NEAR in yoctoNEAR. Balances exceed
// uint64, so they travel as big.Int.
func DefaultGenesisBalance() *big.Int {
	balance, _ := new(big.Int).SetString("10000000000000000000000000000", 10)
	return balance
}

// GenesisAccount is an account baked into the sandbox genesis. Key material
// uses the node's encoding: "ed25519:" followed by base58.
type GenesisAccount struct {
	AccountID  string
	PublicKey  string
	PrivateKey string
	// Balance in yoctoNEAR. Nil means zero.
	Balance *big.Int
}

// KeyPair is an ed25519 key pair in the node's string encoding.
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}

// GenerateKeyPair creates a random ed25519 key pair for genesis accounts.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating key pair: %w", err)
	}
	return KeyPair{
		PublicKey:  "ed25519:" + base58.Encode(pub),
		PrivateKey: "ed25519:" + base58.Encode(priv),
	}, nil
}

// NewRandomAccount creates a funded genesis account with a random id and a
// fresh key pair.
func NewRandomAccount() (GenesisAccount, error) {
	key, err := GenerateKeyPair()
	if err != nil {
		return GenesisAccount{}, err
	}
	return GenesisAccount{
		AccountID:  randomAccountID(),
		PublicKey:  key.PublicKey,
		PrivateKey: key.PrivateKey,
		Balance:    DefaultGenesisBalance(),
	}, nil
}

// randomAccountID mints an id unlikely to collide across runs.
func randomAccountID() string {
	n := mrand.Int63n(90_000_000_000_000) + 10_000_000_000_000
	return fmt.Sprintf("sandbox-genesis-dev-acc-%s-%d", time.Now().UTC().Format("20060102150405"), n)
}

// defaultAccount returns the built-in genesis account record.
func defaultAccount() GenesisAccount {
	return GenesisAccount{
		AccountID:  DefaultGenesisAccount,
		PublicKey:  DefaultGenesisAccountPublicKey,
		PrivateKey: DefaultGenesisAccountPrivateKey,
		Balance:    DefaultGenesisBalance(),
	}
}
