package api

import (
	"net/http"

	_ "github.com/AlexZinkM/launchpad-bot/internal/docs"
	"github.com/AlexZinkM/launchpad-bot/internal/handler"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers. A non-empty operatorToken is
// required on the fund-moving endpoints.
func SetupRouter(wallets *handler.WalletHandler, metrics *observability.Metrics, operatorToken string) http.Handler {
	guard := handler.RequireToken(operatorToken)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wallet endpoints
	mux.HandleFunc("GET /wallets/{network}", wallets.ListWallets)
	mux.HandleFunc("POST /wallets/{network}/distribute", guard(wallets.Distribute))
	mux.HandleFunc("POST /wallets/{network}/{id}/airdrop", guard(wallets.Airdrop))
	mux.HandleFunc("GET /wallets/{network}/{id}/qr", wallets.QRCode)

	// Token endpoints
	mux.HandleFunc("GET /tokens", wallets.ListTokens)

	return mux
}
