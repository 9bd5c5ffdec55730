package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"

	"github.com/salesapp/sales-management/internal/auth"
	"github.com/salesapp/sales-management/internal/config"
	"github.com/salesapp/sales-management/internal/events"
	"github.com/salesapp/sales-management/internal/handlers"
	"github.com/salesapp/sales-management/internal/httpserver"
	"github.com/salesapp/sales-management/internal/logging"
	"github.com/salesapp/sales-management/internal/mailer"
	"github.com/salesapp/sales-management/internal/middleware/loggingmw"
	"github.com/salesapp/sales-management/internal/order"
	"github.com/salesapp/sales-management/internal/repo"
	"github.com/salesapp/sales-management/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repo.Open(initCtx, cfg.DSN())
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	r := repo.New(db)

	issuer := auth.NewIssuer(cfg.JWTSecret, r)
	authenticator := auth.NewAuthenticator(issuer, r)
	manager := order.NewManager(r)

	var sender mailer.Sender
	if cfg.MailEnabled() {
		sender = &mailer.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			FromName: cfg.MailFrom,
		}
	}
	resets := auth.NewPasswordResetService(r, sender, authenticator,
		time.Duration(cfg.OTPExpiryMinutes)*time.Minute)

	producer := events.NewProducer(cfg.KafkaBrokers)

	var es *elasticsearch.Client
	if cfg.ESURL != "" {
		es, err = search.NewClient(cfg)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth: authenticator,
		AuthHandler: &handlers.AuthHandler{
			Verifier:    &auth.Verifier{Repo: r},
			Issuer:      issuer,
			Auth:        authenticator,
			Resets:      resets,
			Repo:        r,
			Producer:    producer,
			MailEnabled: cfg.MailEnabled(),
		},
		Orders:    &handlers.OrderHandler{Manager: manager, Repo: r, Producer: producer},
		Products:  &handlers.ProductHandler{Repo: r, Producer: producer},
		Customers: &handlers.CustomerHandler{Repo: r},
		Dashboard: &handlers.DashboardHandler{Repo: r},
		Search:    &handlers.SearchHandler{ES: es, Index: cfg.ESIndex},
	})

	sweeper := cron.New()
	_, err = sweeper.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := r.DeleteExpiredSessions(ctx); err != nil {
			logger.Warn("session sweep failed", "error", err)
		} else if n > 0 {
			logger.Info("expired sessions removed", "count", n)
		}
		if n, err := r.DeleteExpiredPasswordResets(ctx); err != nil {
			logger.Warn("password reset sweep failed", "error", err)
		} else if n > 0 {
			logger.Info("expired password resets removed", "count", n)
		}
	})
	if err != nil {
		log.Fatalf("cron: %v", err)
	}
	sweeper.Start()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("server starting", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("echo shutdown", "error", err)
	}
	<-sweeper.Stop().Done()
	if err := producer.Close(); err != nil {
		logger.Warn("producer close", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
