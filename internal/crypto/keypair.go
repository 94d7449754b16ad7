package crypto

import (
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Signer is the narrow signing capability handed out of the fleet.
// It never exposes the private key.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// Keypair is a derived ed25519 keypair.
type Keypair struct {
	private solana.PrivateKey
	public  solana.PublicKey
}

func newKeypair(seed []byte) *Keypair {
	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
	return &Keypair{private: priv, public: priv.PublicKey()}
}

// PublicKey returns the wallet address.
func (k *Keypair) PublicKey() solana.PublicKey {
	return k.public
}

// Address returns the base58 wallet address.
func (k *Keypair) Address() string {
	return k.public.String()
}

// SignTransaction adds this key's signature to tx. Other required signers
// may sign before or after.
func (k *Keypair) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if k.public.Equals(key) {
			return &k.private
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// SecretKeyBase58 returns the 64-byte secret in the format wallet apps import.
func (k *Keypair) SecretKeyBase58() string {
	return base58.Encode(k.private)
}

// Wipe zeroes the private key.
func (k *Keypair) Wipe() {
	clear(k.private)
}
