package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

type stepHandler struct {
	prompt func(e *Engine, s *model.Session) model.Reply
	text   func(ctx context.Context, e *Engine, s *model.Session, input string) error
	choice func(ctx context.Context, e *Engine, s *model.Session, choice string) error
}

var handlers = map[model.Step]stepHandler{
	model.StepNetwork: {
		prompt: func(_ *Engine, _ *model.Session) model.Reply {
			return model.Reply{
				Text: "🌐 Choose a network:",
				Options: [][]model.Option{{
					{Label: "🧪 Devnet", Choice: ChoiceDevnet},
					{Label: "🌐 Mainnet", Choice: ChoiceMainnet},
				}},
			}
		},
		choice: func(ctx context.Context, e *Engine, s *model.Session, choice string) error {
			switch choice {
			case ChoiceDevnet:
				s.Data.Network = model.NetworkDevnet
			case ChoiceMainnet:
				s.Data.Network = model.NetworkMainnet
			default:
				return unavailable()
			}
			if s.Kind.Branded() {
				return e.brand(ctx, s)
			}
			return nil
		},
	},

	model.StepBranding: {
		prompt: func(_ *Engine, s *model.Session) model.Reply {
			var b strings.Builder
			fmt.Fprintf(&b, "🎉 Branding ready (%s)\n\n", s.Data.Network.Label())
			fmt.Fprintf(&b, "Name: %s\n", s.Data.Name)
			fmt.Fprintf(&b, "Symbol: %s\n", s.Data.Symbol)
			fmt.Fprintf(&b, "Description: %s\n", s.Data.Description)
			fmt.Fprintf(&b, "Supply: %s", humanize.Comma(s.Data.Supply))
			if s.Data.Network == model.NetworkMainnet {
				b.WriteString("\n\nMainnet launches need pool liquidity and display values next.")
			}
			return model.Reply{
				Text:     b.String(),
				ImageURL: s.Data.ImageURL,
				Options: [][]model.Option{
					{{Label: "✅ Continue", Choice: ChoiceBrandingContinue}},
					{{Label: "🔄 Generate new", Choice: ChoiceBrandingRegenerate}},
				},
			}
		},
		choice: func(ctx context.Context, e *Engine, s *model.Session, choice string) error {
			switch choice {
			case ChoiceBrandingContinue:
				return nil
			case ChoiceBrandingRegenerate:
				if err := e.brand(ctx, s); err != nil {
					return err
				}
				return errStay
			default:
				return unavailable()
			}
		},
	},

	model.StepName: {
		prompt: textPrompt(fmt.Sprintf("🪙 What is the token name? (up to %d characters)", MaxNameLength)),
		text: func(_ context.Context, _ *Engine, s *model.Session, input string) error {
			name, err := ValidateName(input)
			if err != nil {
				return err
			}
			s.Data.Name = name
			return nil
		},
	},

	model.StepDescription: {
		prompt: textPrompt(fmt.Sprintf("📝 Describe the token (up to %d characters):", MaxDescriptionLength)),
		text: func(_ context.Context, _ *Engine, s *model.Session, input string) error {
			desc, err := ValidateDescription(input)
			if err != nil {
				return err
			}
			s.Data.Description = desc
			return nil
		},
	},

	model.StepSymbol: {
		prompt: textPrompt("🔤 Pick a ticker symbol (3 to 6 letters, e.g. MOON):"),
		text: func(_ context.Context, _ *Engine, s *model.Session, input string) error {
			symbol, err := NormalizeSymbol(input)
			if err != nil {
				return err
			}
			s.Data.Symbol = symbol
			return nil
		},
	},

	model.StepSupply: {
		prompt: textPrompt("🔢 Total supply? (1,000 to 1,000,000,000,000)\nExamples: 1,000,000 or 1000000000"),
		text: func(_ context.Context, _ *Engine, s *model.Session, input string) error {
			supply, err := ParseSupply(input)
			if err != nil {
				return err
			}
			s.Data.Supply = supply
			return nil
		},
	},

	model.StepLiquidityAmount: {
		prompt: textPrompt(fmt.Sprintf("💰 How much SOL goes into the pool? (%s to %s)", MinRealSOL, MaxRealSOL)),
		text: func(_ context.Context, _ *Engine, s *model.Session, input string) error {
			amount, err := ParseRealSOL(input)
			if err != nil {
				return err
			}
			s.Data.Liquidity = &model.LiquidityPlan{RealSOL: amount}
			return nil
		},
	},

	model.StepDisplayedLiquidity: {
		prompt: textPrompt(fmt.Sprintf("📊 What liquidity should be displayed, in USD? (at least $%d)\n"+
			"This figure is for marketing display and is not checked against the pool.", MinDisplayedLiquidity)),
		text: func(ctx context.Context, e *Engine, s *model.Session, input string) error {
			displayed, err := ParseDisplayedLiquidity(input)
			if err != nil {
				return err
			}
			if s.Data.Liquidity == nil {
				return invalid("Enter the real SOL liquidity first.")
			}
			price := e.solPrice(ctx)
			realMC, displayedMC := MarketCaps(s.Data.Liquidity.RealSOL, price, displayed, s.Data.Supply)

			plan := *s.Data.Liquidity
			plan.DisplayedLiquidityUSD = displayed
			plan.SOLPriceUSD = price
			plan.RealMarketCapUSD = realMC
			plan.DisplayedMarketCapUSD = displayedMC
			s.Data.Liquidity = &plan
			return nil
		},
	},

	model.StepLiquidityLock: {
		prompt: func(e *Engine, _ *model.Session) model.Reply {
			return model.Reply{
				Text: fmt.Sprintf("🔒 Lock liquidity for %s?", formatDuration(e.lockDuration)),
				Options: [][]model.Option{{
					{Label: "✅ Yes", Choice: ChoiceLockYes},
					{Label: "❌ No", Choice: ChoiceLockNo},
				}},
			}
		},
		choice: func(_ context.Context, _ *Engine, s *model.Session, choice string) error {
			switch choice {
			case ChoiceLockYes:
				s.Data.LockLiquidity = true
			case ChoiceLockNo:
				s.Data.LockLiquidity = false
			default:
				return unavailable()
			}
			return nil
		},
	},

	model.StepMintAuthority: {
		prompt: func(_ *Engine, _ *model.Session) model.Reply {
			return model.Reply{
				Text: "🔑 Revoke mint authority? Nobody will be able to mint more tokens.",
				Options: [][]model.Option{{
					{Label: "✅ Revoke", Choice: ChoiceMintRevoke},
					{Label: "❌ Keep", Choice: ChoiceMintKeep},
				}},
			}
		},
		choice: func(_ context.Context, _ *Engine, s *model.Session, choice string) error {
			switch choice {
			case ChoiceMintRevoke:
				s.Data.RevokeMintAuthority = true
			case ChoiceMintKeep:
				s.Data.RevokeMintAuthority = false
			default:
				return unavailable()
			}
			return nil
		},
	},

	model.StepSummary: {
		prompt: func(e *Engine, s *model.Session) model.Reply {
			return model.Reply{
				Text:     Summary(s, e.lockDuration),
				ImageURL: s.Data.ImageURL,
				Options:  [][]model.Option{{{Label: "🚀 Create token", Choice: ChoiceCreate}}},
			}
		},
		choice: func(context.Context, *Engine, *model.Session, string) error {
			return invalid("Tap Create token to launch, or Cancel.")
		},
	},
}

func textPrompt(text string) func(*Engine, *model.Session) model.Reply {
	return func(*Engine, *model.Session) model.Reply {
		return model.Reply{Text: text}
	}
}

func unavailable() error {
	return invalid("That option is not available at this step.")
}

func introText(kind model.SessionKind) string {
	switch kind {
	case model.KindAIBranding:
		return "🤖 AI token launch"
	case model.KindTrendAIBranding:
		return "🔥 Trending meme token launch"
	default:
		return "🚀 Manual token launch"
	}
}

// Summary renders the final review. Liquidity details appear only on mainnet.
func Summary(s *model.Session, lock time.Duration) string {
	d := s.Data
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Launch summary (%s)\n\n", d.Network.Label())
	fmt.Fprintf(&b, "Name: %s\n", d.Name)
	fmt.Fprintf(&b, "Symbol: %s\n", d.Symbol)
	fmt.Fprintf(&b, "Description: %s\n", d.Description)
	fmt.Fprintf(&b, "Supply: %s\n", humanize.Comma(d.Supply))
	if d.LockLiquidity {
		fmt.Fprintf(&b, "Liquidity lock: Yes, %s\n", formatDuration(lock))
	} else {
		b.WriteString("Liquidity lock: No\n")
	}
	if d.RevokeMintAuthority {
		b.WriteString("Mint authority: Revoke")
	} else {
		b.WriteString("Mint authority: Keep")
	}

	if p := d.Liquidity; d.Network == model.NetworkMainnet && p != nil {
		b.WriteString("\n\n💰 Liquidity details\n")
		fmt.Fprintf(&b, "Real liquidity: %s SOL (~%s)\n", p.RealSOL, formatUSD(p.RealSOL.Mul(p.SOLPriceUSD)))
		fmt.Fprintf(&b, "Displayed liquidity: $%s\n", humanize.Comma(p.DisplayedLiquidityUSD))
		fmt.Fprintf(&b, "Real market cap: %s\n", formatUSD(p.RealMarketCapUSD))
		fmt.Fprintf(&b, "Displayed market cap: %s\n", formatUSD(p.DisplayedMarketCapUSD))
		fmt.Fprintf(&b, "SOL price used: %s", formatUSD(p.SOLPriceUSD))
	}
	return b.String()
}

func createdReply(r *model.TokenRecord) *model.Reply {
	var b strings.Builder
	b.WriteString("🎉 Token created!\n\n")
	fmt.Fprintf(&b, "%s (%s) on %s\n", r.Name, r.Symbol, r.Network.Label())
	fmt.Fprintf(&b, "Supply: %s\n", humanize.Comma(r.Supply))
	fmt.Fprintf(&b, "Mint: %s\n", r.Mint)
	if r.MintAuthorityRevoked {
		b.WriteString("Mint authority: revoked\n")
	}
	if r.LockUntil != nil {
		fmt.Fprintf(&b, "Liquidity locked until %s\n", r.LockUntil.UTC().Format("2006-01-02 15:04 MST"))
	}
	if r.Status == model.TokenStatusPoolPending {
		b.WriteString("Pool: pending\n")
	}
	fmt.Fprintf(&b, "\n%s", model.ExplorerURL(r.Network, r.Mint))
	return &model.Reply{Text: b.String(), ImageURL: r.ImageURL}
}

func formatUSD(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	frac := d.Sub(whole).Abs().StringFixed(2)
	return "$" + humanize.BigComma(whole.BigInt()) + frac[1:]
}

func formatDuration(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0 && d >= 48*time.Hour:
		return fmt.Sprintf("%d days", d/(24*time.Hour))
	case d%time.Hour == 0 && d > time.Hour:
		return fmt.Sprintf("%d hours", d/time.Hour)
	default:
		return d.String()
	}
}
