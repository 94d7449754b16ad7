package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var testParams = Params{N: 1 << 4, R: 8, P: 1}

func TestSLIP10Vector1(t *testing.T) {
	seed, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)

	master := masterKey(seed)
	assert.Equal(t, "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7", hex.EncodeToString(master.key))
	assert.Equal(t, "90046a93de5380a72b5e45010748567d5ea02bbf6522f979e05c0d8d8ca9fffb", hex.EncodeToString(master.chainCode))

	child := master.child(hardenedOffset)
	assert.Equal(t, "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3", hex.EncodeToString(child.key))
	assert.Equal(t, "8b59aa11380b624e81507a27fedda59fea6d0b779a778918a2fd3590e16e9c69", hex.EncodeToString(child.chainCode))
}

func TestParsePath(t *testing.T) {
	indexes, err := ParsePath(DefaultDerivationPath)
	require.NoError(t, err)
	assert.Equal(t, []uint32{44 + hardenedOffset, 501 + hardenedOffset, hardenedOffset, hardenedOffset}, indexes)

	for _, bad := range []string{"", "44'/501'", "m/44'/501/0'", "m/x'", "m/2147483648'"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	d, err := NewDerivation(DefaultDerivationPath)
	require.NoError(t, err)

	a, err := d.Derive(testMnemonic)
	require.NoError(t, err)
	b, err := d.Derive("  ABANDON abandon abandon abandon abandon abandon\nabandon abandon abandon abandon abandon about ")
	require.NoError(t, err)

	assert.Equal(t, a.Address(), b.Address())
	assert.Len(t, a.PublicKey().Bytes(), 32)
}

func TestDeriveRejectsInvalidMnemonic(t *testing.T) {
	d, err := NewDerivation(DefaultDerivationPath)
	require.NoError(t, err)

	_, err = d.Derive("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = d.Derive("")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestGenerateProducesDistinctRecoverableWallets(t *testing.T) {
	d, err := NewDerivation(DefaultDerivationPath)
	require.NoError(t, err)

	m1, k1, err := d.Generate()
	require.NoError(t, err)
	m2, k2, err := d.Generate()
	require.NoError(t, err)

	assert.Len(t, strings.Fields(m1), 24)
	assert.NotEqual(t, m1, m2)
	assert.NotEqual(t, k1.Address(), k2.Address())

	again, err := d.Derive(m1)
	require.NoError(t, err)
	assert.Equal(t, k1.Address(), again.Address())
}

func TestDifferentPathsGiveDifferentAddresses(t *testing.T) {
	d0, err := NewDerivation("m/44'/501'/0'/0'")
	require.NoError(t, err)
	d1, err := NewDerivation("m/44'/501'/1'/0'")
	require.NoError(t, err)

	a, err := d0.Derive(testMnemonic)
	require.NoError(t, err)
	b, err := d1.Derive(testMnemonic)
	require.NoError(t, err)
	assert.NotEqual(t, a.Address(), b.Address())
}

func TestKeypairSignsTransaction(t *testing.T) {
	d, err := NewDerivation(DefaultDerivationPath)
	require.NoError(t, err)
	kp, err := d.Derive(testMnemonic)
	require.NoError(t, err)

	to := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1000, kp.PublicKey(), to).Build()},
		solana.Hash{},
		solana.TransactionPayer(kp.PublicKey()),
	)
	require.NoError(t, err)

	require.NoError(t, kp.SignTransaction(tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
	assert.NotEmpty(t, kp.SecretKeyBase58())
}

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer([]byte("correct horse"), testParams)
	require.NoError(t, err)

	doc, err := s.Seal(model.NetworkDevnet, []string{"addr1"}, []byte(`{"secret":true}`))
	require.NoError(t, err)
	assert.Equal(t, "scrypt", doc.KDF)
	assert.Equal(t, []string{"addr1"}, doc.Addresses)
	assert.NotContains(t, doc.CipherText, "secret")

	plain, err := s.Open(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"secret":true}`, string(plain))
}

func TestSealerRejectsWrongPassword(t *testing.T) {
	s, err := NewSealer([]byte("correct horse"), testParams)
	require.NoError(t, err)
	doc, err := s.Seal(model.NetworkMainnet, nil, []byte("payload"))
	require.NoError(t, err)

	other, err := NewSealer([]byte("battery staple"), testParams)
	require.NoError(t, err)
	_, err = other.Open(doc)
	assert.ErrorIs(t, err, ErrInvalidPassword)

	// the network is bound as associated data
	doc.Network = model.NetworkDevnet
	_, err = s.Open(doc)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestNewSealerRequiresPassword(t *testing.T) {
	_, err := NewSealer(nil, testParams)
	assert.Error(t, err)
}
