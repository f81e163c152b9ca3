// app is the operator CLI: stock, receivables, payables, P&L and the integrity check.
//
// Usage: go run ./cmd/app <command> [args]
//
// Exit status is 0 on success, 1 when the integrity check finds violations and 2 on any other error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"rice-mill/internal/adapters/cli"
	"rice-mill/internal/app"
	"rice-mill/internal/cache"
	"rice-mill/internal/config"
	"rice-mill/internal/db"
)

const (
	exitIntegrity = 1
	exitError     = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	// Logs go to stderr so reports on stdout stay clean.
	logger := config.NewLogger(cfg.LogLevel, "text")
	logger.SetOutput(stderr)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(stderr, "Unable to connect to database: %v\n", err)
		return exitError
	}
	defer pool.Close()

	// The CLI always reads live figures.
	svc := app.NewAppService(app.NewServices(pool, cfg), cache.New(nil, "", 0), logger)

	if err := cli.Run(ctx, svc, args, stdout); err != nil {
		fmt.Fprintln(stderr, err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrIntegrityViolations):
		return exitIntegrity
	default:
		return exitError
	}
}
