package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/common"
	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// The wallet passphrase may come from WALLET_PASSPHRASE or be prompted at startup.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPHost string `envconfig:"HTTP_HOST" default:"127.0.0.1"`
	Port     string `envconfig:"PORT" default:"8080"`

	// OperatorToken, when set, is required as a bearer token on fund-moving endpoints.
	OperatorToken string `envconfig:"OPERATOR_API_TOKEN"`

	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramAdminIDs []int64 `envconfig:"TELEGRAM_ADMIN_IDS"`

	DevnetRPCURL  string `envconfig:"DEVNET_RPC_URL" default:"https://api.devnet.solana.com"`
	MainnetRPCURL string `envconfig:"MAINNET_RPC_URL" default:"https://api.mainnet-beta.solana.com"`

	ReserveSOL          string        `envconfig:"RESERVE_SOL" default:"0.05"`
	DustThresholdSOL    string        `envconfig:"DUST_THRESHOLD_SOL" default:"0.001"`
	TransferFeeLamports uint64        `envconfig:"TRANSFER_FEE_LAMPORTS" default:"5000"`
	AirdropSOL          string        `envconfig:"AIRDROP_SOL" default:"1"`
	MinLaunchBalanceSOL string        `envconfig:"MIN_LAUNCH_BALANCE_SOL" default:"0.01"`
	LockDuration        time.Duration `envconfig:"LOCK_DURATION" default:"24h"`
	DerivationPath      string        `envconfig:"DERIVATION_PATH" default:"m/44'/501'/0'/0'"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/launchpad.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	WalletPassphrase      string `envconfig:"WALLET_PASSPHRASE"`
	DevnetWalletMnemonics string `envconfig:"DEVNET_WALLET_MNEMONICS"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	CoinGeckoURL        string `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3"`
	FallbackSOLPriceUSD string `envconfig:"FALLBACK_SOL_PRICE_USD" default:"100"`

	BalanceRefreshCron string `envconfig:"BALANCE_REFRESH_CRON" default:"0 */10 * * * *"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads an optional .env file and then configuration from environment variables.
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	loaded, err := Load()
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// Load processes the environment into a new Config without touching the global.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Validate checks amounts and enumerations that envconfig cannot.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"RESERVE_SOL":            c.ReserveSOL,
		"DUST_THRESHOLD_SOL":     c.DustThresholdSOL,
		"AIRDROP_SOL":            c.AirdropSOL,
		"MIN_LAUNCH_BALANCE_SOL": c.MinLaunchBalanceSOL,
	} {
		if _, err := common.SOLToLamports(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if _, err := decimal.NewFromString(c.FallbackSOLPriceUSD); err != nil {
		return fmt.Errorf("invalid FALLBACK_SOL_PRICE_USD: %w", err)
	}
	switch c.StoreDriver {
	case "sqlite", "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// ReserveLamports returns the protected wallet-1 reserve.
func (c *Config) ReserveLamports() uint64 {
	return common.MustSOLToLamports(c.ReserveSOL)
}

// DustThresholdLamports returns the minimum meaningful per-wallet distribution.
func (c *Config) DustThresholdLamports() uint64 {
	return common.MustSOLToLamports(c.DustThresholdSOL)
}

// AirdropLamports returns the devnet faucet request size.
func (c *Config) AirdropLamports() uint64 {
	return common.MustSOLToLamports(c.AirdropSOL)
}

// MinLaunchBalanceLamports returns the balance wallet 1 needs to pay for a mint.
func (c *Config) MinLaunchBalanceLamports() uint64 {
	return common.MustSOLToLamports(c.MinLaunchBalanceSOL)
}

// FallbackSOLPrice returns the SOL/USD figure used when the price feed is down.
func (c *Config) FallbackSOLPrice() decimal.Decimal {
	return decimal.RequireFromString(c.FallbackSOLPriceUSD)
}

// HTTPAddr returns the operator API listen address.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.HTTPHost, c.Port)
}

// RPCURL returns the RPC endpoint for network.
func (c *Config) RPCURL(network model.Network) string {
	if network == model.NetworkMainnet {
		return c.MainnetRPCURL
	}
	return c.DevnetRPCURL
}

// DevnetMnemonics splits DEVNET_WALLET_MNEMONICS on ';'.
func (c *Config) DevnetMnemonics() []string {
	var out []string
	for _, m := range strings.Split(c.DevnetWalletMnemonics, ";") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// PromptForPassphrase prompts for the wallet passphrase in the terminal.
// The passphrase is read without echoing (hidden input).
func PromptForPassphrase() ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: set WALLET_PASSPHRASE or run interactively")
	}
	fmt.Fprint(os.Stderr, "Enter wallet passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	return raw, nil
}

// Passphrase returns WALLET_PASSPHRASE or prompts for one.
// Caller must zero the returned slice after use.
func (c *Config) Passphrase() ([]byte, error) {
	if c.WalletPassphrase != "" {
		return []byte(c.WalletPassphrase), nil
	}
	return PromptForPassphrase()
}
