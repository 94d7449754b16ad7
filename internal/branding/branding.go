// Package branding generates token identities for the AI launch flows.
// Without an OpenAI key it still answers from the embedded theme catalog
// and a random name generator.
package branding

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/wizard"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	SourceOpenAI   = "openai"
	SourceTrending = "trending"
	SourceFallback = "fallback"
)

//go:embed themes.yaml
var themesYAML []byte

// Theme is one entry of the trending catalog.
type Theme struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	Theme  string `yaml:"theme"`
}

var (
	prefixes = []string{"Moon", "Rocket", "Diamond", "Doge", "Pepe", "Shiba", "Chad", "Wojak", "Bonk", "Safe"}
	suffixes = []string{"Coin", "Token", "Moon", "Inu", "Cat", "Dog", "X", "Mars", "Floki", "Elon"}
)

// Config selects the LLM backend. An empty APIKey disables it.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Images also requests a logo from the image endpoint.
	Images bool
}

// Service implements wizard.Brander.
type Service struct {
	client *openai.Client
	model  string
	images bool
	themes []Theme
	log    *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithRand fixes the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// New creates a Service and loads the embedded theme catalog.
func New(cfg Config, opts ...Option) (*Service, error) {
	themes, err := LoadThemes(themesYAML)
	if err != nil {
		return nil, err
	}

	s := &Service{
		model:  cfg.Model,
		images: cfg.Images,
		themes: themes,
		log:    zap.NewNop(),
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	if s.model == "" {
		s.model = openai.GPT4oMini
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		s.client = openai.NewClientWithConfig(oc)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoadThemes parses a theme catalog and rejects entries the wizard would refuse.
func LoadThemes(data []byte) ([]Theme, error) {
	var doc struct {
		Themes []Theme `yaml:"themes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse theme catalog: %w", err)
	}
	if len(doc.Themes) == 0 {
		return nil, errors.New("theme catalog is empty")
	}
	for i, t := range doc.Themes {
		if _, err := wizard.ValidateName(t.Name); err != nil {
			return nil, fmt.Errorf("theme %d: %s", i, wizard.Reason(err))
		}
		if _, err := wizard.NormalizeSymbol(t.Symbol); err != nil {
			return nil, fmt.Errorf("theme %d (%s): %s", i, t.Name, wizard.Reason(err))
		}
	}
	return doc.Themes, nil
}

// Generate returns a usable identity. Provider failures fall back to the
// catalog or the random generator, so only a cancelled context is an error.
func (s *Service) Generate(ctx context.Context, style model.BrandingStyle) (*model.Branding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b *model.Branding
	switch style {
	case model.BrandingTrend:
		b = s.trending(ctx)
	default:
		b = s.ai(ctx)
	}

	if b.ImageURL == "" && s.images && s.client != nil {
		url, err := s.image(ctx, b)
		if err != nil {
			s.log.Warn("logo generation failed", zap.String("symbol", b.Symbol), zap.Error(err))
		}
		b.ImageURL = url
	}
	return b, nil
}

func (s *Service) ai(ctx context.Context) *model.Branding {
	if s.client == nil {
		return s.fallback()
	}
	idea, err := s.complete(ctx, "Invent a brand new meme token for Solana. Think Moon, Rocket, Doge, Pepe, Shiba.")
	if err != nil {
		s.log.Warn("AI branding failed, using random name", zap.Error(err))
		return s.fallback()
	}
	idea.Source = SourceOpenAI
	return idea
}

func (s *Service) trending(ctx context.Context) *model.Branding {
	s.mu.Lock()
	t := s.themes[s.rnd.IntN(len(s.themes))]
	s.mu.Unlock()

	if s.client != nil {
		idea, err := s.complete(ctx, fmt.Sprintf("Invent a meme token riding this trend: %s.", t.Theme))
		if err == nil {
			idea.Source = SourceTrending + "+" + SourceOpenAI
			return idea
		}
		s.log.Warn("AI trend branding failed, using catalog entry", zap.String("theme", t.Name), zap.Error(err))
	}

	symbol, _ := wizard.NormalizeSymbol(t.Symbol)
	return &model.Branding{
		Name:        t.Name,
		Symbol:      symbol,
		Description: fmt.Sprintf("🔥 Trending meme token based on %s! Join the community and ride the wave! 🚀💎", t.Theme),
		Source:      SourceTrending,
	}
}

func (s *Service) fallback() *model.Branding {
	s.mu.Lock()
	prefix := prefixes[s.rnd.IntN(len(prefixes))]
	suffix := suffixes[s.rnd.IntN(len(suffixes))]
	s.mu.Unlock()

	name := prefix + suffix
	symbol := strings.ToUpper(name)
	if len(symbol) > 6 {
		symbol = symbol[:6]
	}
	return &model.Branding{
		Name:        name,
		Symbol:      symbol,
		Description: fmt.Sprintf("%s 🚀 Next meme coin on Solana! Diamond hands only! 💎🙌", name),
		Source:      SourceFallback,
	}
}

const systemPrompt = `You name meme tokens. Reply with a JSON object only:
{"name": "...", "symbol": "...", "description": "..."}
name: catchy, at most 20 characters.
symbol: 3 to 6 letters A-Z.
description: one or two playful sentences, at most 160 characters.`

type completion struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

// complete asks the model for an identity and validates it with the wizard rules.
func (s *Service) complete(ctx context.Context, prompt string) (*model.Branding, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.9,
		MaxTokens:      200,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	var c completion
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &c); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}

	name, err := wizard.ValidateName(c.Name)
	if err != nil {
		return nil, fmt.Errorf("model name %q: %w", c.Name, err)
	}
	symbol, err := wizard.NormalizeSymbol(c.Symbol)
	if err != nil {
		return nil, fmt.Errorf("model symbol %q: %w", c.Symbol, err)
	}
	desc, err := wizard.ValidateDescription(c.Description)
	if err != nil {
		return nil, fmt.Errorf("model description: %w", err)
	}
	return &model.Branding{Name: name, Symbol: symbol, Description: desc}, nil
}

func (s *Service) image(ctx context.Context, b *model.Branding) (string, error) {
	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         fmt.Sprintf("Round cartoon logo for the meme coin %s (%s). %s", b.Name, b.Symbol, b.Description),
		Model:          openai.CreateImageModelDallE2,
		Size:           openai.CreateImageSize512x512,
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", errors.New("image endpoint returned no data")
	}
	return resp.Data[0].URL, nil
}
