package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carlink/internal/config"
	"carlink/internal/domain"
	"carlink/internal/mailer"
	"carlink/internal/observability/logging"
	"carlink/internal/observability/metrics"
	"carlink/internal/observability/middleware"
	"carlink/internal/presence"
	"carlink/internal/service/impl"
	"carlink/internal/store"
	"carlink/internal/token"
	httpx "carlink/internal/transport/http"
	"carlink/internal/transport/udp"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logger := logging.NewLogger(logging.Config{
		ServiceName: "carlink",
		Environment: os.Getenv("ENVIRONMENT"),
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)
	metrics.MustRegister("carlink")

	logger.Info("starting service")

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dialector gorm.Dialector
	if cfg.Backend == "hybrid" {
		dialector = sqlite.Open(cfg.DatabaseURL)
	} else {
		dialector = postgres.Open(cfg.DatabaseURL)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&domain.Account{}, &domain.Car{}, &domain.OneTimeCode{}); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	// Backend selection: all-relational, or relational rows with volatile
	// presence and codes. Either way the lifecycle above the gateway is
	// identical.
	var gateway store.Gateway
	switch cfg.Backend {
	case "hybrid":
		hs := store.NewHybridStore(gdb)
		go hs.Codes().Run(ctx, cfg.SweepInterval, token.ChallengeTTL, "one_time_codes")
		go hs.Presence().Run(ctx, cfg.SweepInterval, presence.SweepMaxAge, "presence")
		gateway = hs
	default:
		ss := store.NewSQLStore(gdb)
		go sweepDurableCodes(ctx, ss, cfg.SweepInterval)
		gateway = ss
	}

	tokens := token.NewAuthority(token.Config{
		Issuer:     cfg.Issuer,
		SigningKey: []byte(cfg.SigningKey),
	})

	mail := mailer.NewSMTPMailer(cfg.SMTPAddress, cfg.FromAddress)

	auth := impl.NewAuthServiceImpl(gateway, tokens, mail)
	cars := impl.NewCarServiceImpl(gateway, tokens, impl.NewSecretServiceArgon2id())

	go serveUDP(ctx, logger, cars, cfg.UDPAddr)

	handler := middleware.WithObservability(httpx.NewRouter(auth, cars))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", srv.Addr, "backend", cfg.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// sweepDurableCodes is the relational twin of the volatile store's sweep loop.
func sweepDurableCodes(ctx context.Context, ss *store.SQLStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := ss.SweepExpiredCodes(ctx, token.ChallengeTTL)
			if err != nil {
				slog.Warn("code sweep failed", "error", err)
				continue
			}
			if evicted > 0 {
				metrics.SweepEvictionsTotal.WithLabelValues("one_time_codes").Add(float64(evicted))
				slog.Debug("swept expired codes", "evicted", evicted)
			}
		}
	}
}

func serveUDP(ctx context.Context, logger *slog.Logger, cars *impl.CarServiceImpl, addr string) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		logger.Error("udp listen", "addr", addr, "error", err)
		return
	}
	logger.Info("udp listening", "addr", addr)
	if err := udp.NewServer(cars).Serve(ctx, conn); err != nil {
		logger.Error("udp server error", "error", err)
	}
}
