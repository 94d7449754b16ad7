package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	sealVersion  = 1
	kdfScrypt    = "scrypt"
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// ErrInvalidPassword is returned when a sealed document cannot be opened.
var ErrInvalidPassword = errors.New("invalid password")

// Params are the scrypt cost parameters used when sealing.
type Params struct {
	N int
	R int
	P int
}

// DefaultParams: N=2^18 (~256MB RAM, 0.5-2s per seal or open).
// Wallet documents are opened once at startup, so the cost is paid rarely.
var DefaultParams = Params{N: 1 << 18, R: 8, P: 1}

// Sealer encrypts wallet documents under a passphrase.
type Sealer struct {
	password []byte
	params   Params
}

// NewSealer copies password; the caller may zero its own slice afterwards.
func NewSealer(password []byte, params Params) (*Sealer, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	pw := make([]byte, len(password))
	copy(pw, password)
	return &Sealer{password: pw, params: params}, nil
}

// Seal encrypts plaintext and returns the document with its KDF parameters.
func (s *Sealer) Seal(network model.Network, addresses []string, plaintext []byte) (*model.SealedDocument, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := s.newGCM(salt, s.params)
	if err != nil {
		return nil, err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, []byte(network))

	return &model.SealedDocument{
		Version:    sealVersion,
		Network:    network,
		Addresses:  addresses,
		KDF:        kdfScrypt,
		N:          s.params.N,
		R:          s.params.R,
		P:          s.params.P,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// Open decrypts a document using the parameters recorded in it.
// Caller should clear the returned plaintext after use.
func (s *Sealer) Open(doc *model.SealedDocument) ([]byte, error) {
	if doc.KDF != kdfScrypt {
		return nil, fmt.Errorf("unsupported kdf %q", doc.KDF)
	}

	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(doc.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(doc.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := s.newGCM(salt, Params{N: doc.N, R: doc.R, P: doc.P})
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, []byte(doc.Network))
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}

// Wipe zeroes the in-memory passphrase.
func (s *Sealer) Wipe() {
	clear(s.password)
}

func (s *Sealer) newGCM(salt []byte, p Params) (cipher.AEAD, error) {
	key, err := scrypt.Key(s.password, salt, p.N, p.R, p.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
