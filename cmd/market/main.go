package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lmsrMarket/internal/auth"
	"lmsrMarket/internal/config"
	"lmsrMarket/internal/journal"
	"lmsrMarket/internal/ledger"
	ledgerpg "lmsrMarket/internal/ledger/postgres"
	"lmsrMarket/internal/market"
	"lmsrMarket/internal/storage"
	storagepg "lmsrMarket/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "market",
		Short:        "LMSR binary prediction market",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("store", "./data/markets.json", "market state file path (file mode)")
	root.PersistentFlags().String("ledger", "./data/ledger.json", "ledger file path (file mode)")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN (switches state and ledger to Postgres)")
	root.PersistentFlags().String("journal", "./data/trades.jsonl", "trade journal JSONL path")
	root.PersistentFlags().Int64("fee-bps", 200, "claim fee in basis points")
	root.PersistentFlags().String("auth-secrets", "", "principal->secret JSON file (enables HMAC auth)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCreateCmd(),
		newBuyCmd(),
		newSellCmd(),
		newResolveCmd(),
		newClaimCmd(),
		newWithdrawCmd(),
		newFundCmd(),
		newPriceCmd(),
		newQuoteCmd(),
		newSellQuoteCmd(),
		newBalanceCmd(),
		newStateCmd(),
		newListCmd(),
		newHistoryCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything a subcommand needs: config, logger, engine, and
// the underlying adapters.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	engine  *market.Engine
	ledger  ledger.Ledger
	store   storage.MarketStore
	journal *journal.Journal
	close   func()
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var (
		store   storage.MarketStore
		ledg    ledger.Ledger
		cleanup = func() {}
	)
	if cfg.PgDSN != "" {
		pgStore, err := storagepg.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pgStore.Close()
			return nil, fmt.Errorf("ensure store schema: %w", err)
		}
		pgLedger, err := ledgerpg.NewLedger(ctx, cfg.PgDSN)
		if err != nil {
			pgStore.Close()
			return nil, fmt.Errorf("connect ledger: %w", err)
		}
		if err := pgLedger.EnsureSchema(ctx); err != nil {
			pgStore.Close()
			pgLedger.Close()
			return nil, fmt.Errorf("ensure ledger schema: %w", err)
		}
		store = pgStore
		ledg = pgLedger
		cleanup = func() {
			pgStore.Close()
			pgLedger.Close()
		}
	} else {
		store = storage.NewFileStore(cfg.StorePath)
		ledg = ledger.NewFileLedger(cfg.LedgerPath)
	}

	var authorizer auth.Authorizer = auth.Open{}
	if cfg.AuthSecrets != "" {
		secrets, err := config.LoadSecrets(cfg.AuthSecrets)
		if err != nil {
			cleanup()
			return nil, err
		}
		authorizer = auth.NewHMAC(secrets)
	}

	engine := market.NewEngine(market.Config{FeeBPS: cfg.FeeBPS}, store, ledg, authorizer, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		engine:  engine,
		ledger:  ledg,
		store:   store,
		journal: journal.New(cfg.JournalPath),
		close: func() {
			cleanup()
			logger.Sync()
		},
	}, nil
}

// withProof attaches the --proof consent proof for a principal, if given.
func withProof(ctx context.Context, cmd *cobra.Command, principal string) context.Context {
	proof, _ := cmd.Flags().GetString("proof")
	if proof == "" {
		return ctx
	}
	return auth.WithProof(ctx, principal, proof)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
