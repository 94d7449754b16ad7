package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// DefaultDerivationPath is the path used by Phantom and the Solana CLI.
const DefaultDerivationPath = "m/44'/501'/0'/0'"

const mnemonicEntropyBits = 256 // 24 words

// ErrInvalidMnemonic is returned when a phrase fails BIP-39 checksum validation.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Derivation maps mnemonics to keypairs along one fixed path.
type Derivation struct {
	path    string
	indexes []uint32
}

// NewDerivation validates path and returns a Derivation for it.
func NewDerivation(path string) (*Derivation, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return &Derivation{path: path, indexes: indexes}, nil
}

// Path returns the derivation path string.
func (d *Derivation) Path() string {
	return d.path
}

// Derive returns the keypair for mnemonic. The same phrase always yields the same address.
func (d *Derivation) Derive(mnemonic string) (*Keypair, error) {
	phrase := NormalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(phrase, "")
	defer clear(seed)

	key := deriveEd25519(seed, d.indexes)
	defer clear(key)

	return newKeypair(key), nil
}

// Generate creates a fresh 24-word mnemonic from crypto/rand entropy.
// The caller must persist the mnemonic before using the keypair.
func (d *Derivation) Generate() (string, *Keypair, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer clear(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build mnemonic: %w", err)
	}

	kp, err := d.Derive(mnemonic)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, kp, nil
}

// NormalizeMnemonic lower-cases a phrase and collapses whitespace.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}
