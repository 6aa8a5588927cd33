package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metricsdash/internal/apiclient"
	"metricsdash/internal/config"
	"metricsdash/internal/dashboard"
	"metricsdash/internal/format"
	"metricsdash/internal/httpserver"
	"metricsdash/internal/logging"
	"metricsdash/internal/metrics"
	"metricsdash/internal/websession"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	dash := cfg.Dashboard

	money, err := format.NewCurrency(dash.Locale, dash.Currency, dash.CurrencySymbol)
	if err != nil {
		log.Fatalf("currency format: %v", err)
	}
	order, err := metrics.ParseSortOrder(dash.DefaultSortOrder)
	if err != nil {
		log.Fatalf("default sort order: %v", err)
	}

	client := apiclient.New(dash.APIBaseURL,
		apiclient.WithTimeout(dash.RequestTimeout),
		apiclient.WithLogger(logger),
	)
	logger.Info("metrics API", "base_url", client.BaseURL(), "locale", dash.Locale, "currency", money.Unit().String())

	sessions := websession.NewRegistry(func() *dashboard.View {
		return dashboard.NewView(client, money, order, logger)
	})
	signer := websession.NewSigner(cfg.SessionSecret, dash.SessionIdle)

	cookies := websession.NewCookies(signer, sessions, dashboard.CookieName, logger)
	handler, err := dashboard.NewHandler(cookies, logger)
	if err != nil {
		log.Fatalf("dashboard templates: %v", err)
	}
	router := httpserver.NewRouter(logger, handler,
		cookies.Middleware,
		dash.LoginRateLimit,
	)
	server := httpserver.New(cfg.HTTPAddr, router, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go sessions.Run(ctx, time.Minute, dash.SessionIdle, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
