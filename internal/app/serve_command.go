package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/api"
	"github.com/AlexZinkM/launchpad-bot/internal/branding"
	"github.com/AlexZinkM/launchpad-bot/internal/client"
	"github.com/AlexZinkM/launchpad-bot/internal/handler"
	"github.com/AlexZinkM/launchpad-bot/internal/launch"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/scheduler"
	"github.com/AlexZinkM/launchpad-bot/internal/telegram"
	"github.com/AlexZinkM/launchpad-bot/wizard"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func (s *runtimeState) newServeCommand() *cobra.Command {
	var noBot bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, the operator API and the balance scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return s.serve(ctx, !noBot)
		},
	}
	cmd.Flags().BoolVar(&noBot, "no-bot", false, "Serve only the HTTP API")
	return cmd
}

func (s *runtimeState) serve(parent context.Context, withBot bool) error {
	if withBot && s.cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required, or pass --no-bot")
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	f, err := s.openFleet(ctx)
	if err != nil {
		return err
	}
	distributor := s.newDistributor(f)
	tokens := s.backend

	minters := make(map[model.Network]launch.Minter, len(s.ledgers))
	for n, c := range s.ledgers {
		minters[n] = c
	}
	launcher := launch.New(f, minters, tokens, launch.Config{
		MinBalanceLamports: s.cfg.MinLaunchBalanceLamports(),
		LockDuration:       s.cfg.LockDuration,
	},
		launch.WithLogger(s.log.Named("launch")),
		launch.WithMetrics(s.metrics))

	brander, err := branding.New(branding.Config{
		APIKey:  s.cfg.OpenAIAPIKey,
		Model:   s.cfg.OpenAIModel,
		BaseURL: s.cfg.OpenAIBaseURL,
		Images:  s.cfg.OpenAIAPIKey != "",
	}, branding.WithLogger(s.log.Named("branding")))
	if err != nil {
		return err
	}

	engine := wizard.NewEngine(wizard.NewMemorySessionStore(), launcher,
		wizard.WithBrander(brander),
		wizard.WithPriceSource(client.NewCoinGeckoClient(s.cfg.CoinGeckoURL)),
		wizard.WithFallbackPrice(s.cfg.FallbackSOLPrice()),
		wizard.WithLockDuration(s.cfg.LockDuration),
		wizard.WithLogger(s.log.Named("wizard")),
		wizard.WithMetrics(s.metrics))

	var botAPI *tgbotapi.BotAPI
	if withBot {
		botAPI, err = tgbotapi.NewBotAPI(s.cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("failed to connect to Telegram: %w", err)
		}
		s.log.Info("authorized on Telegram", zap.String("username", botAPI.Self.UserName))
	}

	sched := scheduler.New(ctx, f, s.log.Named("scheduler"))
	if err := sched.RegisterRefresh(s.cfg.BalanceRefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr(),
		Handler:           api.SetupRouter(handler.NewWalletHandler(f, distributor, tokens, s.log.Named("http")), s.metrics, s.cfg.OperatorToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.OperatorToken == "" {
		s.log.Warn("OPERATOR_API_TOKEN is not set, fund-moving endpoints are unauthenticated", zap.String("addr", srv.Addr))
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.RefreshNow()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if botAPI != nil {
		bot := telegram.New(botAPI, engine, f, distributor, tokens,
			telegram.WithLogger(s.log.Named("telegram")),
			telegram.WithAdmins(s.cfg.TelegramAdminIDs))

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := botAPI.GetUpdatesChan(u)

		wg.Add(1)
		go func() {
			defer wg.Done()
			bot.Run(ctx, updates)
		}()
	}

	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
	case err = <-errCh:
		s.log.Error("server failed", zap.Error(err))
	}
	cancel()
	if botAPI != nil {
		botAPI.StopReceivingUpdates()
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		s.log.Warn("http shutdown", zap.Error(serr))
	}
	wg.Wait()
	return err
}
