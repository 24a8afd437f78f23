package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/TiredEspressoBean/procflow"
	"github.com/TiredEspressoBean/procflow/postgres"
	"github.com/heptiolabs/healthcheck"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		zap.S().Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		zap.S().Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store procflow.Store = postgres.New(pool)

	// Liveness, readiness and metrics live on a side listener so the API
	// port carries only the flow endpoints.
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(200))
	health.AddReadinessCheck("postgres", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	})

	opsMux := http.NewServeMux()
	opsMux.HandleFunc("/live", health.LiveEndpoint)
	opsMux.HandleFunc("/ready", health.ReadyEndpoint)
	opsMux.Handle("/metrics", promhttp.Handler())

	opsAddr := os.Getenv("OPS_ADDR")
	if opsAddr == "" {
		opsAddr = ":9091"
	}
	go func() {
		if err := http.ListenAndServe(opsAddr, opsMux); err != nil {
			zap.S().Errorf("ops listener: %v", err)
		}
	}()

	app := newApp(store)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":3000"
	}
	zap.S().Infow("listening", "addr", addr, "ops_addr", opsAddr)
	if err := app.Listen(addr); err != nil {
		zap.S().Fatalf("listen: %v", err)
	}
}
