package config

import (
	"testing"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint64(50_000_000), c.ReserveLamports())
	assert.Equal(t, uint64(1_000_000), c.DustThresholdLamports())
	assert.Equal(t, uint64(1_000_000_000), c.AirdropLamports())
	assert.Equal(t, 24*time.Hour, c.LockDuration)
	assert.Equal(t, "m/44'/501'/0'/0'", c.DerivationPath)
	assert.Equal(t, "https://api.devnet.solana.com", c.RPCURL(model.NetworkDevnet))
	assert.Equal(t, "https://api.mainnet-beta.solana.com", c.RPCURL(model.NetworkMainnet))
	assert.Equal(t, "100", c.FallbackSOLPrice().String())
	assert.Empty(t, c.DevnetMnemonics())
	assert.Equal(t, "127.0.0.1:8080", c.HTTPAddr())
	assert.Empty(t, c.OperatorToken)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESERVE_SOL", "0.1")
	t.Setenv("LOCK_DURATION", "48h")
	t.Setenv("DEVNET_WALLET_MNEMONICS", "one two ; three four;;")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), c.ReserveLamports())
	assert.Equal(t, 48*time.Hour, c.LockDuration)
	assert.Equal(t, []string{"one two", "three four"}, c.DevnetMnemonics())
}

func TestHTTPAddr(t *testing.T) {
	t.Setenv("HTTP_HOST", "0.0.0.0")
	t.Setenv("PORT", "9090")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", c.HTTPAddr())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"bad reserve":       {"RESERVE_SOL": "lots"},
		"bad store driver":  {"STORE_DRIVER": "mongo"},
		"postgres sans dsn": {"STORE_DRIVER": "postgres"},
		"bad price":         {"FALLBACK_SOL_PRICE_USD": "cheap"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPassphraseFromEnv(t *testing.T) {
	c := &Config{WalletPassphrase: "secret"}
	pw, err := c.Passphrase()
	require.NoError(t, err)
	assert.Equal(t, "secret", string(pw))
}
