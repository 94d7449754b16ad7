package model

import "time"

// SessionKind selects which wizard flow a session follows.
type SessionKind string

const (
	KindManualLaunch    SessionKind = "manual_launch"
	KindAIBranding      SessionKind = "ai_branding"
	KindTrendAIBranding SessionKind = "trend_ai_branding"
)

// Branded reports whether name, symbol and description come from a
// branding provider instead of user input.
func (k SessionKind) Branded() bool {
	return k == KindAIBranding || k == KindTrendAIBranding
}

// Step is a named wizard state.
type Step string

const (
	StepNetwork            Step = "network"
	StepBranding           Step = "branding_review"
	StepName               Step = "name"
	StepDescription        Step = "description"
	StepSymbol             Step = "symbol"
	StepSupply             Step = "supply"
	StepLiquidityAmount    Step = "liquidity_amount"
	StepDisplayedLiquidity Step = "displayed_liquidity"
	StepLiquidityLock      Step = "liquidity_lock"
	StepMintAuthority      Step = "mint_authority"
	StepSummary            Step = "summary"
)

// SessionData accumulates answers along the wizard path.
type SessionData struct {
	Network             Network        `json:"network,omitempty"`
	Name                string         `json:"name,omitempty"`
	Description         string         `json:"description,omitempty"`
	Symbol              string         `json:"symbol,omitempty"`
	Supply              int64          `json:"supply,omitempty"`
	ImageURL            string         `json:"imageUrl,omitempty"`
	BrandingSource      string         `json:"brandingSource,omitempty"`
	Liquidity           *LiquidityPlan `json:"liquidity,omitempty"`
	LockLiquidity       bool           `json:"lockLiquidity"`
	RevokeMintAuthority bool           `json:"revokeMintAuthority"`
}

// Session is one user's in-progress wizard.
type Session struct {
	UserID    int64       `json:"userId"`
	Kind      SessionKind `json:"kind"`
	Step      Step        `json:"step"`
	Data      SessionData `json:"data"`
	StartedAt time.Time   `json:"startedAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Data.Liquidity != nil {
		plan := *s.Data.Liquidity
		out.Data.Liquidity = &plan
	}
	return &out
}

// Option is one selectable button in a reply.
type Option struct {
	Label  string `json:"label"`
	Choice string `json:"choice"`
}

// Reply is what the chat layer renders after a wizard step.
type Reply struct {
	Text     string     `json:"text"`
	Options  [][]Option `json:"options,omitempty"`
	ImageURL string     `json:"imageUrl,omitempty"`
}
