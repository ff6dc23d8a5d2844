// Command arcstorm hammers arc handles from many goroutines and checks that
// every shared value is destroyed exactly once.
//
//	arcstorm -config arcstorm.yaml -workers 16
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "arcstorm:", err)
		os.Exit(2)
	}
	level, _ := parseLevel(cfg.LogLevel)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("storm starting", "workers", cfg.Workers, "rounds", cfg.Rounds,
		"ops_per_worker", cfg.OpsPerWorker, "seed", cfg.Seed)
	st, err := run(ctx, cfg, log)
	if errors.Is(err, context.Canceled) {
		log.Warn("storm interrupted", "ops", st.ops.Load())
		return
	}
	if err != nil {
		log.Error("storm failed", "err", err, "violations", st.violations.Load())
		stop()
		os.Exit(1)
	}
}
