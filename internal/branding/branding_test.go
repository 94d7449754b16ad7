package branding_test

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/AlexZinkM/launchpad-bot/internal/branding"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeOpenAI struct {
	content    string
	failChat   bool
	chatCalls  atomic.Int32
	imageCalls atomic.Int32
}

func (f *fakeOpenAI) start(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.chatCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if f.failChat {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": f.content},
			}},
		})
	})
	mux.HandleFunc("POST /v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		f.imageCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/logo.png"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func newService(t *testing.T, cfg branding.Config) *branding.Service {
	t.Helper()
	s, err := branding.New(cfg,
		branding.WithLogger(zaptest.NewLogger(t)),
		branding.WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	return s
}

func assertUsable(t *testing.T, b *model.Branding) {
	t.Helper()
	_, err := wizard.ValidateName(b.Name)
	assert.NoError(t, err)
	symbol, err := wizard.NormalizeSymbol(b.Symbol)
	assert.NoError(t, err)
	assert.Equal(t, symbol, b.Symbol)
	_, err = wizard.ValidateDescription(b.Description)
	assert.NoError(t, err)
}

func TestGenerate_OpenAI(t *testing.T) {
	fake := &fakeOpenAI{content: `{"name":"Rocket Frog","symbol":"rfrog","description":"Hops to the moon."}`}
	s := newService(t, branding.Config{APIKey: "sk-test", BaseURL: fake.start(t), Images: true})

	b, err := s.Generate(context.Background(), model.BrandingAI)
	require.NoError(t, err)
	assert.Equal(t, "Rocket Frog", b.Name)
	assert.Equal(t, "RFROG", b.Symbol)
	assert.Equal(t, "Hops to the moon.", b.Description)
	assert.Equal(t, "https://img.example/logo.png", b.ImageURL)
	assert.Equal(t, branding.SourceOpenAI, b.Source)
	assert.EqualValues(t, 1, fake.chatCalls.Load())
	assert.EqualValues(t, 1, fake.imageCalls.Load())
}

func TestGenerate_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeOpenAI
	}{
		{name: "server error", fake: &fakeOpenAI{failChat: true}},
		{name: "not json", fake: &fakeOpenAI{content: "Rocket Frog, RFROG"}},
		{name: "bad symbol", fake: &fakeOpenAI{content: `{"name":"Rocket Frog","symbol":"R-FROG!","description":"x"}`}},
		{name: "name too long", fake: &fakeOpenAI{content: `{"name":"Rocket Frog Rocket Frog Rocket Frog","symbol":"RFROG","description":"x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(t, branding.Config{APIKey: "sk-test", BaseURL: tt.fake.start(t)})

			b, err := s.Generate(context.Background(), model.BrandingAI)
			require.NoError(t, err)
			assert.Equal(t, branding.SourceFallback, b.Source)
			assertUsable(t, b)
		})
	}
}

func TestGenerate_WithoutKey(t *testing.T) {
	s := newService(t, branding.Config{})

	for range 50 {
		b, err := s.Generate(context.Background(), model.BrandingAI)
		require.NoError(t, err)
		assert.Equal(t, branding.SourceFallback, b.Source)
		assertUsable(t, b)
	}

	for range 50 {
		b, err := s.Generate(context.Background(), model.BrandingTrend)
		require.NoError(t, err)
		assert.Equal(t, branding.SourceTrending, b.Source)
		assert.Contains(t, b.Description, "Trending meme token")
		assertUsable(t, b)
	}
}

func TestGenerate_TrendWithOpenAI(t *testing.T) {
	fake := &fakeOpenAI{content: `{"name":"Lambo Pepe","symbol":"LPEPE","description":"Pepe bought a Lambo."}`}
	s := newService(t, branding.Config{APIKey: "sk-test", BaseURL: fake.start(t)})

	b, err := s.Generate(context.Background(), model.BrandingTrend)
	require.NoError(t, err)
	assert.Equal(t, "LPEPE", b.Symbol)
	assert.Equal(t, "trending+openai", b.Source)
	assert.Empty(t, b.ImageURL)
	assert.Zero(t, fake.imageCalls.Load())
}

func TestGenerate_CancelledContext(t *testing.T) {
	s := newService(t, branding.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Generate(ctx, model.BrandingAI)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadThemes(t *testing.T) {
	themes, err := branding.LoadThemes([]byte("themes:\n  - name: Doge\n    symbol: DOGE\n    theme: dogs\n"))
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Equal(t, "dogs", themes[0].Theme)

	_, err = branding.LoadThemes([]byte("themes:\n  - name: Shiba\n    symbol: SHIBOSS\n    theme: x\n"))
	assert.ErrorContains(t, err, "Symbol must be 3 to 6 letters")

	_, err = branding.LoadThemes([]byte("themes: []\n"))
	assert.Error(t, err)

	_, err = branding.LoadThemes([]byte("themes: [\n"))
	assert.Error(t, err)
}
