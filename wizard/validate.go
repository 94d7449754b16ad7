package wizard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AlexZinkM/launchpad-bot/internal/common"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is wrapped by every validation failure. The wrapped
// message is shown to the user.
var ErrInvalidInput = errors.New("invalid input")

const (
	MaxNameLength         = 32
	MaxDescriptionLength  = 200
	MinSupply             = 1_000
	MaxSupply             = 1_000_000_000_000
	MinDisplayedLiquidity = 100
	DefaultSupply         = 1_000_000
)

var (
	MinRealSOL = decimal.RequireFromString("0.01")
	MaxRealSOL = decimal.RequireFromString("1000")

	symbolPattern = regexp.MustCompile(`^[A-Z]{3,6}$`)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Reason returns the user-facing part of a wizard error.
func Reason(err error) string {
	msg := err.Error()
	for _, prefix := range []string{ErrInvalidInput.Error() + ": ", errBrandingFailed.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}

// ValidateName trims and checks a token name.
func ValidateName(input string) (string, error) {
	name := strings.TrimSpace(input)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxNameLength {
		return "", invalid("Name must be 1 to %d characters.", MaxNameLength)
	}
	return name, nil
}

// ValidateDescription trims and checks a token description.
func ValidateDescription(input string) (string, error) {
	desc := strings.TrimSpace(input)
	n := utf8.RuneCountInString(desc)
	if n == 0 || n > MaxDescriptionLength {
		return "", invalid("Description must be 1 to %d characters.", MaxDescriptionLength)
	}
	return desc, nil
}

// NormalizeSymbol upper-cases a ticker and checks it is 3 to 6 letters A-Z.
func NormalizeSymbol(input string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input))
	if !symbolPattern.MatchString(symbol) {
		return "", invalid("Symbol must be 3 to 6 letters (A-Z only).")
	}
	return symbol, nil
}

// ParseSupply parses a total supply, ignoring thousands separators.
func ParseSupply(input string) (int64, error) {
	supply, err := common.ParseGroupedInt(input, "")
	if err != nil || supply < MinSupply || supply > MaxSupply {
		return 0, invalid("Supply must be a whole number from 1,000 to 1,000,000,000,000.")
	}
	return supply, nil
}

// ParseRealSOL parses the SOL amount put into the pool on mainnet.
func ParseRealSOL(input string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil || amount.LessThan(MinRealSOL) || amount.GreaterThan(MaxRealSOL) {
		return decimal.Zero, invalid("Liquidity must be between %s and %s SOL.", MinRealSOL, MaxRealSOL)
	}
	return amount, nil
}

// ParseDisplayedLiquidity parses the advertised USD liquidity, ignoring "$" and commas.
func ParseDisplayedLiquidity(input string) (int64, error) {
	amount, err := common.ParseGroupedInt(input, "$")
	if err != nil || amount < MinDisplayedLiquidity {
		return 0, invalid("Displayed liquidity must be a whole dollar amount of at least $%d.", MinDisplayedLiquidity)
	}
	return amount, nil
}

var million = decimal.NewFromInt(1_000_000)

// MarketCaps derives the real and displayed market caps from the liquidity
// answers. The displayed figure is not checked against the real one.
func MarketCaps(realSOL, solPriceUSD decimal.Decimal, displayedLiquidityUSD, supply int64) (realMC, displayedMC decimal.Decimal) {
	s := decimal.NewFromInt(supply)
	realMC = realSOL.Mul(solPriceUSD).Mul(s).Div(million)
	displayedMC = decimal.NewFromInt(displayedLiquidityUSD).Mul(s).Div(million)
	return realMC, displayedMC
}
