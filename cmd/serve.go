package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/recruit-bot/internal/flow"
	"github.com/spigell/recruit-bot/internal/webhook"
	"github.com/spigell/recruit-bot/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the messaging webhook and run the scoring workers",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	c, err := setup(ctx, logger, false)
	if err != nil {
		logger.Fatal("starting the recruit-bot", zap.Error(err))
	}
	defer c.Close()

	config := c.config
	logger.Info("starting the recruit-bot", zap.String("version", resolveVersion()), zap.String("addr", config.Server.Addr))

	sender, err := newSender(config.Twilio, logger)
	if err != nil {
		logger.Fatal("creating a message sender", zap.Error(err))
	}

	orchestrator := worker.NewOrchestrator(c.pipeline, c.locker, worker.OrchestratorConfig{
		QueueSize:   config.Worker.QueueSize,
		Concurrency: config.Worker.Concurrency,
		LockTTL:     config.Worker.LockTTL,
	}, logger)
	sweeper := worker.NewSweeper(c.store, orchestrator, worker.SweeperConfig{
		Schedule:    config.Worker.RescoreSchedule,
		Grace:       config.Worker.SweepGrace,
		MaxAttempts: config.Worker.SweepAttempts,
	}, logger)

	inbound := webhook.InboundConfig{}
	if config.Twilio.ValidateSignature {
		token, err := twilioToken(config.Twilio)
		if err != nil {
			logger.Fatal("loading twilio auth token", zap.Error(err))
		}
		if token == "" || config.Server.PublicURL == "" {
			logger.Fatal("signature validation needs twilio.auth-token and server.public-url")
		}
		inbound.AuthToken = token
		inbound.PublicURL = config.Server.PublicURL
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	router := webhook.NewRouter(webhook.RouterConfig{
		Inbound: webhook.NewInboundHandler(webhook.InboundDeps{
			Engine:    flow.New(c.store, c.assistant, c.assistant, logger),
			Store:     c.store,
			Scheduler: orchestrator,
			Sender:    sender,
			Locker:    c.locker,
			Config:    inbound,
			Logger:    logger,
		}),
		Admin:      webhook.NewAdminHandler(c.store, orchestrator, logger),
		AdminToken: config.Server.AdminToken,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return orchestrator.Run(gctx)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("exiting", zap.Error(err))
	}
	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
