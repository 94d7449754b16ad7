package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlexZinkM/launchpad-bot/fleet"
	"github.com/AlexZinkM/launchpad-bot/internal/common"
	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const welcomeText = `🚀 Meme token launchpad

/launch - create a token step by step
/auto_brand - let AI pick the name and symbol
/trend_brand - ride a trending meme
/wallets [devnet|mainnet] - show wallet balances
/seed_wallets [devnet|mainnet] - split wallet 1 across wallets 2-5
/airdrop [wallet] - request devnet SOL
/qr [devnet|mainnet] [wallet] - wallet address QR code
/tokens - recent launches
/cancel - stop the current launch`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	args := strings.Fields(msg.CommandArguments())

	b.log.Debug("command", zap.String("command", msg.Command()), zap.Int64("user_id", userID))

	switch msg.Command() {
	case "start", "help":
		m := tgbotapi.NewMessage(chatID, welcomeText)
		m.ReplyMarkup = mainMenu()
		b.send(m)
	case "launch":
		b.startWizard(ctx, chatID, userID, model.KindManualLaunch)
	case "auto_brand":
		b.startWizard(ctx, chatID, userID, model.KindAIBranding)
	case "trend_brand":
		b.startWizard(ctx, chatID, userID, model.KindTrendAIBranding)
	case "cancel":
		b.render(chatID, b.wizard.Cancel(userID))
	case "wallets":
		network, ok := b.networkArg(chatID, args, 0)
		if ok {
			b.showWallets(ctx, chatID, network)
		}
	case "seed_wallets", "equalize_wallets":
		network, ok := b.networkArg(chatID, args, 0)
		if ok {
			b.seedWallets(ctx, chatID, userID, network)
		}
	case "airdrop":
		id, ok := b.walletArg(chatID, args, 0)
		if ok {
			b.airdrop(ctx, chatID, userID, id)
		}
	case "qr":
		network, ok := b.networkArg(chatID, args, 0)
		if !ok {
			return
		}
		if id, ok := b.walletArg(chatID, args, 1); ok {
			b.sendQR(chatID, network, id)
		}
	case "tokens":
		var network model.Network
		if len(args) > 0 {
			n, ok := b.networkArg(chatID, args, 0)
			if !ok {
				return
			}
			network = n
		}
		b.showTokens(ctx, chatID, network)
	default:
		b.sendText(chatID, "Unknown command. Send /start to see what I can do.")
	}
}

func (b *Bot) handleMenu(ctx context.Context, chatID, userID int64, action string) {
	verb, target, _ := strings.Cut(action, ":")
	switch verb {
	case "launch":
		b.startWizard(ctx, chatID, userID, model.KindManualLaunch)
		return
	case "auto":
		b.startWizard(ctx, chatID, userID, model.KindAIBranding)
		return
	case "trend":
		b.startWizard(ctx, chatID, userID, model.KindTrendAIBranding)
		return
	case "tokens":
		b.showTokens(ctx, chatID, "")
		return
	case "wallets", "seed":
		network, err := model.ParseNetwork(target)
		if err != nil {
			break
		}
		if verb == "wallets" {
			b.showWallets(ctx, chatID, network)
		} else {
			b.seedWallets(ctx, chatID, userID, network)
		}
		return
	case "qr", "airdrop":
		n, rawID, _ := strings.Cut(target, ":")
		network, err := model.ParseNetwork(n)
		id, idErr := strconv.Atoi(rawID)
		if err != nil || idErr != nil {
			break
		}
		if verb == "qr" {
			b.sendQR(chatID, network, id)
		} else {
			b.airdrop(ctx, chatID, userID, id)
		}
		return
	}
	b.log.Warn("unknown menu action", zap.String("action", action))
}

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Launch token", menuPrefix+"launch"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 AI branding", menuPrefix+"auto"),
			tgbotapi.NewInlineKeyboardButtonData("🔥 Trending", menuPrefix+"trend"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧪 Devnet wallets", menuPrefix+"wallets:devnet"),
			tgbotapi.NewInlineKeyboardButtonData("🌐 Mainnet wallets", menuPrefix+"wallets:mainnet"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📜 My tokens", menuPrefix+"tokens"),
		),
	)
}

func (b *Bot) startWizard(ctx context.Context, chatID, userID int64, kind model.SessionKind) {
	reply, err := b.wizard.Start(ctx, userID, kind)
	if err != nil {
		b.fail(chatID, "wizard start", err)
		return
	}
	b.render(chatID, reply)
}

// networkArg reads args[i] as a network, defaulting to devnet.
func (b *Bot) networkArg(chatID int64, args []string, i int) (model.Network, bool) {
	if len(args) <= i {
		return model.NetworkDevnet, true
	}
	network, err := model.ParseNetwork(args[i])
	if err != nil {
		b.sendText(chatID, "Unknown network. Use devnet or mainnet.")
		return "", false
	}
	return network, true
}

// walletArg reads args[i] as a wallet id, defaulting to wallet 1.
func (b *Bot) walletArg(chatID int64, args []string, i int) (int, bool) {
	if len(args) <= i {
		return model.PrimaryWalletID, true
	}
	id, err := strconv.Atoi(args[i])
	if err != nil || id < 1 || id > model.WalletCount {
		b.sendText(chatID, fmt.Sprintf("Wallet must be a number from 1 to %d.", model.WalletCount))
		return 0, false
	}
	return id, true
}

func (b *Bot) showWallets(ctx context.Context, chatID int64, network model.Network) {
	if !b.wallets.Configured(network) {
		b.sendText(chatID, notConfiguredText(network))
		return
	}
	wallets, err := b.wallets.RefreshBalances(ctx, network)
	if err != nil {
		b.fail(chatID, "refresh balances", err)
		return
	}

	m := tgbotapi.NewMessage(chatID, WalletsText(network, wallets))
	m.ReplyMarkup = walletsMenu(network)
	b.send(m)
}

// WalletsText renders a balance snapshot.
func WalletsText(network model.Network, wallets []model.Wallet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 %s wallets\n\n", network.Label())
	var total uint64
	for _, w := range wallets {
		fmt.Fprintf(&sb, "%d. %s\n", w.ID, w.Address)
		if w.BalanceKnown {
			total += w.BalanceLamports
			fmt.Fprintf(&sb, "   %s SOL\n", common.FormatSOL(w.BalanceLamports))
		} else {
			sb.WriteString("   ⚠️ balance unavailable\n")
		}
	}
	fmt.Fprintf(&sb, "\nTotal: %s SOL", common.FormatSOL(total))
	return sb.String()
}

func walletsMenu(network model.Network) tgbotapi.InlineKeyboardMarkup {
	n := network.String()
	qr := make([]tgbotapi.InlineKeyboardButton, 0, model.WalletCount)
	for id := 1; id <= model.WalletCount; id++ {
		qr = append(qr, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("QR %d", id), fmt.Sprintf("%sqr:%s:%d", menuPrefix, n, id)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", menuPrefix+"wallets:"+n),
			tgbotapi.NewInlineKeyboardButtonData("⚖️ Seed wallets", menuPrefix+"seed:"+n),
		),
		qr,
	}
	if network == model.NetworkDevnet {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🪂 Airdrop to wallet 1", menuPrefix+"airdrop:devnet:1"),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func notConfiguredText(network model.Network) string {
	if network == model.NetworkMainnet {
		return "🌐 Mainnet wallets are not configured. An operator must import them with:\nlaunchpad wallets import --network mainnet --file phrases.txt"
	}
	return fmt.Sprintf("%s wallets are not available right now.", network.Label())
}

func (b *Bot) seedWallets(ctx context.Context, chatID, userID int64, network model.Network) {
	if !b.isAdmin(userID) {
		b.sendText(chatID, "⛔ Only operators can move wallet funds.")
		return
	}
	if !b.wallets.Configured(network) {
		b.sendText(chatID, notConfiguredText(network))
		return
	}

	b.sendText(chatID, fmt.Sprintf("⚖️ Seeding %s wallets 2-%d from wallet 1...", network.Label(), model.WalletCount))
	res, err := b.distributor.TryRun(ctx, network)
	switch {
	case err == nil:
		b.sendText(chatID, DistributionText(res))
	case errors.Is(err, fleet.ErrDistributionInProgress):
		b.sendText(chatID, "⏳ A seeding run for this network is already in progress.")
	case errors.Is(err, fleet.ErrInsufficientReserve), errors.Is(err, fleet.ErrAmountTooSmall):
		b.sendText(chatID, "❌ "+err.Error())
	case errors.Is(err, fleet.ErrLedgerUnavailable):
		b.sendText(chatID, "❌ Could not read wallet 1 balance. Try again shortly.")
	default:
		b.fail(chatID, "distribute", err)
	}
}

// DistributionText renders a seeding run.
func DistributionText(res *model.DistributionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚖️ Wallet seeding on %s\n\n", res.Network.Label())
	fmt.Fprintf(&sb, "Reserve kept: %s SOL\n", common.FormatSOL(res.ReserveLamports))
	fmt.Fprintf(&sb, "Sent per wallet: %s SOL\n", common.FormatSOL(res.AmountPerWalletLamports))
	fmt.Fprintf(&sb, "Successful: %d/%d\n\n", res.SuccessfulTransfers, len(res.Results))
	for _, r := range res.Results {
		switch {
		case r.Success:
			fmt.Fprintf(&sb, "✅ Wallet %d: %s SOL\n", r.WalletID, common.FormatSOL(r.NewBalanceLamports))
		case r.Unconfirmed:
			fmt.Fprintf(&sb, "⏳ Wallet %d: sent, not confirmed yet. Check %s\n", r.WalletID, model.ExplorerTxURL(res.Network, r.Signature))
		default:
			fmt.Fprintf(&sb, "❌ Wallet %d: %s\n", r.WalletID, r.Error)
		}
	}
	fmt.Fprintf(&sb, "\nWallet 1 now: %s SOL", common.FormatSOL(res.FinalWallet1Lamports))
	return sb.String()
}

func (b *Bot) airdrop(ctx context.Context, chatID, userID int64, id int) {
	if !b.isAdmin(userID) {
		b.sendText(chatID, "⛔ Only operators can request airdrops.")
		return
	}
	sig, err := b.wallets.RequestAirdrop(ctx, model.NetworkDevnet, id)
	switch {
	case err == nil:
		b.sendText(chatID, fmt.Sprintf("🪂 Airdrop to wallet %d confirmed.\n%s", id,
			model.ExplorerTxURL(model.NetworkDevnet, sig.String())))
	case errors.Is(err, fleet.ErrNotConfigured):
		b.sendText(chatID, notConfiguredText(model.NetworkDevnet))
	case errors.Is(err, fleet.ErrLedgerUnavailable):
		b.sendText(chatID, "❌ The devnet faucet refused the request. It is rate limited, try again later.")
	default:
		b.fail(chatID, "airdrop", err)
	}
}

func (b *Bot) sendQR(chatID int64, network model.Network, id int) {
	var address string
	for _, w := range b.wallets.List(network) {
		if w.ID == id {
			address = w.Address
		}
	}
	if address == "" {
		b.sendText(chatID, notConfiguredText(network))
		return
	}

	png, err := qrcode.Encode(address, qrcode.Medium, 256)
	if err != nil {
		b.fail(chatID, "qr encode", err)
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fmt.Sprintf("wallet-%d.png", id), Bytes: png})
	photo.Caption = fmt.Sprintf("%s wallet %d\n%s", network.Label(), id, address)
	b.send(photo)
}

func (b *Bot) showTokens(ctx context.Context, chatID int64, network model.Network) {
	tokens, err := b.tokens.ListTokens(ctx, network, 10)
	if err != nil {
		b.fail(chatID, "list tokens", err)
		return
	}
	if len(tokens) == 0 {
		b.sendText(chatID, "No tokens launched yet. Send /launch to create one.")
		return
	}
	b.sendText(chatID, TokensText(tokens))
}

// TokensText renders recent launches, newest first.
func TokensText(tokens []*model.TokenRecord) string {
	var sb strings.Builder
	sb.WriteString("📜 Recent tokens\n")
	for _, t := range tokens {
		fmt.Fprintf(&sb, "\n%s (%s) on %s, %s\n", t.Name, t.Symbol, t.Network.Label(), humanize.Time(t.CreatedAt))
		fmt.Fprintf(&sb, "Supply %s, status %s\n", humanize.Comma(t.Supply), t.Status)
		sb.WriteString(model.ExplorerURL(t.Network, t.Mint) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
