// Package main запускает HTTP-сервер сервиса PizzaPortal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/pizza-portal/internal/config"
	"github.com/mmeshcher/pizza-portal/internal/gateway"
	"github.com/mmeshcher/pizza-portal/internal/handler"
	"github.com/mmeshcher/pizza-portal/internal/menu"
	"github.com/mmeshcher/pizza-portal/internal/middleware"
	"github.com/mmeshcher/pizza-portal/internal/render"
	"github.com/mmeshcher/pizza-portal/internal/repository"
	"github.com/mmeshcher/pizza-portal/internal/service"
)

const (
	yearCreated     = "2018"
	shutdownTimeout = 5 * time.Second
	limiterCleanup  = time.Minute
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		sugar.Warnw("failed to load .env", "error", err.Error())
	}

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, repository.Options{
		Kind:          cfg.Storage,
		DataDir:       cfg.DataDir,
		DatabaseURI:   cfg.DatabaseURI,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}
	defer store.Close()

	menuSnapshot, err := menu.NewLoader(store, cfg.MenuFile, logger).Load(ctx)
	if err != nil {
		sugar.Fatalw("menu initialization error", "error", err.Error())
	}

	svc := service.New(service.Options{
		Store:  store,
		Menu:   menuSnapshot,
		Hasher: service.NewHasher(cfg.HashingSecret),
		Payments: gateway.NewPaymentClient(gateway.PaymentConfig{
			BaseURL:  cfg.StripeURL,
			APIKey:   cfg.StripeAPIKey,
			Currency: cfg.StripeCurrency,
		}, logger),
		Mailer: gateway.NewMailClient(gateway.MailConfig{
			BaseURL: cfg.MailgunURL,
			APIKey:  cfg.MailgunAPIKey,
			Domain:  cfg.MailgunDomain,
			From:    cfg.MailgunFrom,
		}, logger),
		Renderer: render.New(render.Globals{
			AppName:     cfg.AppName,
			CompanyName: cfg.CompanyName,
			YearCreated: yearCreated,
			BaseURL:     cfg.BaseURL,
		}),
		Logger: logger,
	})

	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, logger)
	h := handler.NewHandler(handler.Services{
		Tokens: svc.Tokens,
		Users:  svc.Users,
		Menu:   svc.Menu,
		Carts:  svc.Carts,
		Orders: svc.Orders,
	}, logger, middleware.NewMetrics(), limiter)

	r := h.SetupRouter()

	servers := []*http.Server{{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.HTTPSAddress != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.HTTPSAddress,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(limiterCleanup)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	})

	g.Go(func() error {
		sugar.Infow("starting pizza portal server", "addr", cfg.RunAddress, "menu_items", menuSnapshot.Len())
		if err := servers[0].ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if len(servers) > 1 {
		g.Go(func() error {
			sugar.Infow("starting pizza portal TLS server", "addr", cfg.HTTPSAddress)
			err := servers[1].ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("https server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		sugar.Info("servers stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
