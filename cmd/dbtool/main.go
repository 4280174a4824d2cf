// Command dbtool runs one-off maintenance tasks against the bookstore
// database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/config"
	"github.com/ariefcatur/go-bookstore/internal/logger"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  migrate        apply the schema (safe to re-run)\n")
	fmt.Fprintf(os.Stderr, "  check-schema   report missing tables and columns\n")
	fmt.Fprintf(os.Stderr, "  promote-admin  -email <addr>: grant admin\n")
	fmt.Fprintf(os.Stderr, "  demote-admin   -email <addr>: revoke admin\n")
	fmt.Fprintf(os.Stderr, "  seed-order     -email <addr> [-name] [-title] [-price] [-qty]: place a sample order\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	_ = godotenv.Load()
	cfg := config.Load()
	if err := logger.Init(cfg.IsDev()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	cmd, err := parseCommand(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 2)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if err := cmd.Run(ctx, db, log, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
