// Package telegram is the chat transport. Updates from different users are
// handled concurrently; updates from one user are handled in order.
package telegram

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"

	"github.com/gagliardetto/solana-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	wizardPrefix = "w:"
	menuPrefix   = "m:"

	queueSize   = 32
	idleTimeout = 5 * time.Minute
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Wizard drives the token launch conversation.
type Wizard interface {
	Start(ctx context.Context, userID int64, kind model.SessionKind) (*model.Reply, error)
	HandleText(ctx context.Context, userID int64, text string) (*model.Reply, error)
	HandleChoice(ctx context.Context, userID int64, choice string) (*model.Reply, error)
	Cancel(userID int64) *model.Reply
}

// Wallets is the wallet fleet.
type Wallets interface {
	Configured(network model.Network) bool
	List(network model.Network) []model.Wallet
	RefreshBalances(ctx context.Context, network model.Network) ([]model.Wallet, error)
	RequestAirdrop(ctx context.Context, network model.Network, id int) (solana.Signature, error)
}

// Distributor seeds wallets 2 to 5 from wallet 1.
type Distributor interface {
	TryRun(ctx context.Context, network model.Network) (*model.DistributionResult, error)
}

// Bot routes Telegram updates to the wizard and the wallet commands.
type Bot struct {
	api         Sender
	wizard      Wizard
	wallets     Wallets
	distributor Distributor
	tokens      storage.TokenStore
	admins      []int64
	log         *zap.Logger

	mu     sync.Mutex
	queues map[int64]chan tgbotapi.Update
	wg     sync.WaitGroup
}

// Option configures a Bot.
type Option func(*Bot)

func WithLogger(l *zap.Logger) Option {
	return func(b *Bot) { b.log = l }
}

// WithAdmins restricts fund-moving commands to the given user ids.
func WithAdmins(ids []int64) Option {
	return func(b *Bot) { b.admins = ids }
}

// New creates a Bot.
func New(api Sender, wizard Wizard, wallets Wallets, distributor Distributor, tokens storage.TokenStore, opts ...Option) *Bot {
	b := &Bot{
		api:         api,
		wizard:      wizard,
		wallets:     wallets,
		distributor: distributor,
		tokens:      tokens,
		log:         zap.NewNop(),
		queues:      make(map[int64]chan tgbotapi.Update),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run consumes updates until ctx is done or the channel closes, then waits
// for in-flight handlers. Queued updates are still handled after the
// channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				b.closeQueues()
				return
			}
			b.dispatch(ctx, u)
		}
	}
}

func (b *Bot) closeQueues() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, q := range b.queues {
		close(q)
		delete(b.queues, id)
	}
}

func (b *Bot) dispatch(ctx context.Context, u tgbotapi.Update) {
	user := u.SentFrom()
	if user == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[user.ID]
	if !ok {
		q = make(chan tgbotapi.Update, queueSize)
		b.queues[user.ID] = q
		b.wg.Add(1)
		go b.worker(ctx, user.ID, q)
	}
	select {
	case q <- u:
	default:
		b.log.Warn("dropping update, user queue full", zap.Int64("user_id", user.ID))
	}
}

// worker handles one user's updates in order and exits after idleTimeout.
func (b *Bot) worker(ctx context.Context, userID int64, q chan tgbotapi.Update) {
	defer b.wg.Done()
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-q:
			if !ok {
				return
			}
			b.Handle(ctx, u)
			idle.Reset(idleTimeout)
		case <-idle.C:
			b.mu.Lock()
			if len(q) == 0 {
				delete(b.queues, userID)
				b.mu.Unlock()
				return
			}
			b.mu.Unlock()
			idle.Reset(idleTimeout)
		}
	}
}

// Handle processes a single update synchronously.
func (b *Bot) Handle(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", zap.Int("update_id", u.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.IsCommand():
		b.handleCommand(ctx, u.Message)
	case u.Message != nil && u.Message.Text != "":
		b.handleText(ctx, u.Message)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return len(b.admins) == 0 || slices.Contains(b.admins, userID)
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	reply, err := b.wizard.HandleText(ctx, msg.From.ID, msg.Text)
	if err != nil {
		b.fail(msg.Chat.ID, "wizard text", err)
		return
	}
	// No session: stray text is ignored.
	if reply == nil {
		return
	}
	b.render(msg.Chat.ID, reply)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Debug("failed to answer callback", zap.Error(err))
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	if choice, ok := strings.CutPrefix(cb.Data, wizardPrefix); ok {
		reply, err := b.wizard.HandleChoice(ctx, cb.From.ID, choice)
		if err != nil {
			b.fail(chatID, "wizard choice", err)
			return
		}
		if reply == nil {
			b.sendText(chatID, "This launch has expired. Send /launch to start again.")
			return
		}
		b.render(chatID, reply)
		return
	}
	if action, ok := strings.CutPrefix(cb.Data, menuPrefix); ok {
		b.handleMenu(ctx, chatID, cb.From.ID, action)
		return
	}
	b.log.Warn("unknown callback data", zap.String("data", cb.Data))
}

// render sends a wizard reply, with its image first when it has one.
func (b *Bot) render(chatID int64, reply *model.Reply) {
	if reply.ImageURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(reply.ImageURL))
		if _, err := b.api.Send(photo); err != nil {
			b.log.Warn("failed to send image", zap.String("url", reply.ImageURL), zap.Error(err))
		}
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Options) > 0 {
		msg.ReplyMarkup = keyboard(wizardPrefix, reply.Options)
	}
	b.send(msg)
}

func keyboard(prefix string, options [][]model.Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, row := range options {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, o := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(o.Label, prefix+o.Choice))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error("failed to send message", zap.Error(err))
	}
}

func (b *Bot) fail(chatID int64, op string, err error) {
	b.log.Error("handler failed", zap.String("op", op), zap.Error(err))
	b.sendText(chatID, "❌ Something went wrong. Please try again or send /cancel.")
}
