package app_test

import (
	"bytes"
	"testing"

	"github.com/AlexZinkM/launchpad-bot/internal/app"

	"github.com/stretchr/testify/assert"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("WALLET_PASSPHRASE", "test-passphrase")
	t.Setenv("APP_ENV", "test")
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := app.NewRunnerWithWriters(&stdout, &stderr).Run(args)
	return code, stdout.String(), stderr.String()
}

func TestRun_TokensEmpty(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "tokens")
	assert.Equal(t, 0, code)
	assert.Equal(t, "No tokens launched yet.\n", out)

	code, out, _ = run(t, "tokens", "--json")
	assert.Equal(t, 0, code)
	assert.Equal(t, "[]\n", out)
}

func TestRun_MainnetNotConfigured(t *testing.T) {
	setupEnv(t)

	code, _, errOut := run(t, "wallets", "list", "--network", "mainnet")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "mainnet wallets are not configured")
}

func TestRun_InvalidArguments(t *testing.T) {
	setupEnv(t)

	code, _, errOut := run(t, "wallets", "airdrop", "9")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "wallet id must be 1 to 5")

	code, _, errOut = run(t, "tokens", "--network", "testnet")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown network")
}

func TestRun_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("RESERVE_SOL", "lots")

	code, _, errOut := run(t, "tokens")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "RESERVE_SOL")
}

func TestRun_ServeRequiresBotToken(t *testing.T) {
	setupEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	code, _, errOut := run(t, "serve")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "TELEGRAM_BOT_TOKEN")
}
