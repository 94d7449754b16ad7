// Package wizard drives the multi-step token launch conversation: it
// validates each answer, advances the session along the step graph and
// hands the finished request to the token creator.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Choice tokens accepted by HandleChoice.
const (
	ChoiceDevnet             = "network:devnet"
	ChoiceMainnet            = "network:mainnet"
	ChoiceBrandingContinue   = "branding:continue"
	ChoiceBrandingRegenerate = "branding:regenerate"
	ChoiceLockYes            = "lock:yes"
	ChoiceLockNo             = "lock:no"
	ChoiceMintRevoke         = "mint:revoke"
	ChoiceMintKeep           = "mint:keep"
	ChoiceCreate             = "create"
	ChoiceCancel             = "cancel"
)

// TokenCreator performs the launch once the user confirms the summary.
type TokenCreator interface {
	CreateToken(ctx context.Context, req model.TokenCreationRequest) (*model.TokenRecord, error)
}

// Brander generates a token identity for the branded flows.
type Brander interface {
	Generate(ctx context.Context, style model.BrandingStyle) (*model.Branding, error)
}

// PriceSource supplies the SOL/USD rate used for the real market cap.
type PriceSource interface {
	SOLPriceUSD(ctx context.Context) (decimal.Decimal, error)
}

var (
	errStay           = errors.New("stay on step")
	errBrandingFailed = errors.New("branding failed")
)

// Engine is the wizard state machine. It holds no per-user state itself;
// everything lives in the SessionStore.
type Engine struct {
	sessions      SessionStore
	creator       TokenCreator
	brander       Brander
	prices        PriceSource
	fallbackPrice decimal.Decimal
	lockDuration  time.Duration
	log           *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithBrander(b Brander) Option {
	return func(e *Engine) { e.brander = b }
}

func WithPriceSource(p PriceSource) Option {
	return func(e *Engine) { e.prices = p }
}

// WithFallbackPrice sets the SOL/USD rate used when the price source fails.
func WithFallbackPrice(p decimal.Decimal) Option {
	return func(e *Engine) { e.fallbackPrice = p }
}

// WithLockDuration sets the liquidity lock length shown to the user.
func WithLockDuration(d time.Duration) Option {
	return func(e *Engine) { e.lockDuration = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(sessions SessionStore, creator TokenCreator, opts ...Option) *Engine {
	e := &Engine{
		sessions:      sessions,
		creator:       creator,
		fallbackPrice: decimal.NewFromInt(100),
		lockDuration:  24 * time.Hour,
		log:           zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a new wizard for userID, replacing any session in progress.
func (e *Engine) Start(ctx context.Context, userID int64, kind model.SessionKind) (*model.Reply, error) {
	switch kind {
	case model.KindManualLaunch, model.KindAIBranding, model.KindTrendAIBranding:
	default:
		return nil, fmt.Errorf("unknown wizard kind %q", kind)
	}

	now := e.now().UTC()
	s := &model.Session{
		UserID:    userID,
		Kind:      kind,
		Step:      model.StepNetwork,
		StartedAt: now,
		UpdatedAt: now,
	}
	e.sessions.Set(userID, s)
	e.metrics.ObserveSession(string(kind), "started")
	e.log.Debug("wizard started", zap.Int64("user_id", userID), zap.String("kind", string(kind)))

	reply := e.prompt(s)
	reply.Text = introText(kind) + "\n\n" + reply.Text
	return &reply, nil
}

// HandleText applies free-text input to the current step. It returns nil
// when the user has no session.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) (*model.Reply, error) {
	s, ok := e.sessions.Get(userID)
	if !ok {
		return nil, nil
	}

	h := handlers[s.Step]
	if h.text == nil {
		return e.reprompt(s, "Please use the buttons below."), nil
	}
	if err := h.text(ctx, e, s, text); err != nil {
		return e.reprompt(s, Reason(err)), nil
	}
	return e.advance(s)
}

// HandleChoice applies a button choice to the current step. Choices that the
// current step does not offer re-prompt it. It returns nil when the user
// has no session.
func (e *Engine) HandleChoice(ctx context.Context, userID int64, choice string) (*model.Reply, error) {
	if choice == ChoiceCancel {
		if _, ok := e.sessions.Get(userID); !ok {
			return nil, nil
		}
		return e.Cancel(userID), nil
	}

	s, ok := e.sessions.Get(userID)
	if !ok {
		return nil, nil
	}

	if s.Step == model.StepSummary && choice == ChoiceCreate {
		return e.create(ctx, s)
	}

	h := handlers[s.Step]
	if h.choice == nil {
		return e.reprompt(s, "Please type your answer."), nil
	}

	err := h.choice(ctx, e, s, choice)
	switch {
	case err == nil:
		return e.advance(s)
	case errors.Is(err, errStay):
		e.touch(s)
		reply := e.prompt(s)
		return &reply, nil
	case errors.Is(err, ErrInvalidInput), errors.Is(err, errBrandingFailed):
		return e.reprompt(s, Reason(err)), nil
	default:
		return nil, err
	}
}

// Cancel ends the user's wizard without side effects.
func (e *Engine) Cancel(userID int64) *model.Reply {
	s, ok := e.sessions.Get(userID)
	if !ok {
		return &model.Reply{Text: "Nothing to cancel."}
	}
	e.sessions.Delete(userID)
	e.metrics.ObserveSession(string(s.Kind), "cancelled")
	return &model.Reply{Text: "❌ Token launch cancelled."}
}

// Active reports whether userID has a wizard in progress.
func (e *Engine) Active(userID int64) bool {
	_, ok := e.sessions.Get(userID)
	return ok
}

func (e *Engine) advance(s *model.Session) (*model.Reply, error) {
	next, ok := nextStep(s)
	if !ok {
		return nil, fmt.Errorf("no transition from step %q", s.Step)
	}
	s.Step = next
	e.touch(s)
	reply := e.prompt(s)
	return &reply, nil
}

func (e *Engine) touch(s *model.Session) {
	s.UpdatedAt = e.now().UTC()
	e.sessions.Set(s.UserID, s)
}

func (e *Engine) reprompt(s *model.Session, reason string) *model.Reply {
	reply := e.prompt(s)
	reply.Text = "❌ " + reason + "\n\n" + reply.Text
	return &reply
}

func (e *Engine) prompt(s *model.Session) model.Reply {
	h, ok := handlers[s.Step]
	if !ok {
		return model.Reply{Text: "Something went wrong. Send /cancel and start again."}
	}
	reply := h.prompt(e, s)
	if s.Step != model.StepSummary {
		cur, total := position(s)
		reply.Text = fmt.Sprintf("Step %d/%d\n", cur, total) + reply.Text
	}
	reply.Options = append(reply.Options, []model.Option{{Label: "❌ Cancel", Choice: ChoiceCancel}})
	return reply
}

// create hands the request to the token creator. The session survives a
// failed creation so the user can retry from the summary.
func (e *Engine) create(ctx context.Context, s *model.Session) (*model.Reply, error) {
	req, err := buildRequest(s)
	if err != nil {
		return nil, err
	}

	record, err := e.creator.CreateToken(ctx, req)
	if err != nil {
		e.log.Error("token creation failed",
			zap.Int64("user_id", s.UserID),
			zap.String("network", s.Data.Network.String()),
			zap.Error(err))
		e.metrics.ObserveSession(string(s.Kind), "failed")
		return e.reprompt(s, "Token creation failed: "+err.Error()), nil
	}

	e.sessions.Delete(s.UserID)
	e.metrics.ObserveSession(string(s.Kind), "created")
	return createdReply(record), nil
}

// buildRequest assembles the launch request and checks branch consistency:
// mainnet requests carry liquidity figures, devnet requests never do.
func buildRequest(s *model.Session) (model.TokenCreationRequest, error) {
	d := s.Data
	switch {
	case d.Network == model.NetworkMainnet && (d.Liquidity == nil || d.Liquidity.DisplayedLiquidityUSD == 0):
		return model.TokenCreationRequest{}, errors.New("mainnet session reached summary without liquidity figures")
	case d.Network == model.NetworkDevnet && d.Liquidity != nil:
		return model.TokenCreationRequest{}, errors.New("devnet session carries liquidity figures")
	case d.Network == "":
		return model.TokenCreationRequest{}, errors.New("session reached summary without a network")
	}

	req := model.TokenCreationRequest{
		UserID:              s.UserID,
		Kind:                s.Kind,
		Network:             d.Network,
		Name:                d.Name,
		Symbol:              d.Symbol,
		Description:         d.Description,
		Supply:              d.Supply,
		LockLiquidity:       d.LockLiquidity,
		RevokeMintAuthority: d.RevokeMintAuthority,
		ImageURL:            d.ImageURL,
	}
	if d.Liquidity != nil {
		plan := *d.Liquidity
		req.Liquidity = &plan
	}
	return req, nil
}

// solPrice returns the live SOL/USD rate or the fallback.
func (e *Engine) solPrice(ctx context.Context) decimal.Decimal {
	if e.prices == nil {
		return e.fallbackPrice
	}
	price, err := e.prices.SOLPriceUSD(ctx)
	if err != nil || !price.IsPositive() {
		e.log.Warn("using fallback SOL price", zap.String("fallback", e.fallbackPrice.String()), zap.Error(err))
		return e.fallbackPrice
	}
	return price
}

// brand fills name, symbol and description from the brander.
func (e *Engine) brand(ctx context.Context, s *model.Session) error {
	if e.brander == nil {
		return fmt.Errorf("%w: AI branding is not available, use /launch instead", errBrandingFailed)
	}
	style := model.BrandingAI
	if s.Kind == model.KindTrendAIBranding {
		style = model.BrandingTrend
	}

	b, err := e.brander.Generate(ctx, style)
	if err != nil {
		e.log.Warn("branding provider failed", zap.Error(err))
		return fmt.Errorf("%w: branding failed, please try again", errBrandingFailed)
	}

	name, err := ValidateName(b.Name)
	if err != nil {
		return fmt.Errorf("%w: generated name was unusable, please try again", errBrandingFailed)
	}
	symbol, err := NormalizeSymbol(b.Symbol)
	if err != nil {
		return fmt.Errorf("%w: generated symbol was unusable, please try again", errBrandingFailed)
	}
	desc, err := ValidateDescription(b.Description)
	if err != nil {
		return fmt.Errorf("%w: generated description was unusable, please try again", errBrandingFailed)
	}

	s.Data.Name = name
	s.Data.Symbol = symbol
	s.Data.Description = desc
	s.Data.ImageURL = b.ImageURL
	s.Data.BrandingSource = b.Source
	if s.Data.Supply == 0 {
		s.Data.Supply = DefaultSupply
	}
	return nil
}
