// Package main implements a mock Lightspeed server for local development.
// It serves a generated catalog through both the R-Series and X-Series
// product APIs and runs the X-Series OAuth flow with PKCE verification, so
// the dashboard can be exercised without a real store.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	products := flag.Int("products", 120, "number of products in the generated catalog")
	apiKey := flag.String("api-key", "mock-key", "accepted R-Series API key")
	apiSecret := flag.String("api-secret", "mock-secret", "accepted R-Series API secret")
	staticToken := flag.String("static-token", "mock-token", "X-Series bearer token accepted without a login")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "lifetime of issued X-Series access tokens")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := newServer(serverConfig{
		Catalog:     buildCatalog(*products),
		APIKey:      *apiKey,
		APISecret:   *apiSecret,
		StaticToken: *staticToken,
		TokenTTL:    *tokenTTL,
	}, logger)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Lightspeed server", "addr", addr, "products", *products)
	logger.Info("r_series hosts", "us", "http://localhost"+addr+"/r/us", "eu", "http://localhost"+addr+"/r/eu")
	logger.Info("x_series base", "url", "http://localhost"+addr+"/x/{domain}")

	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, srv.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}
