// Package main is the entry point for the swap agent.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonasrmichel/swap-agent/pkg/agent"
	"github.com/jonasrmichel/swap-agent/pkg/config"
	"github.com/jonasrmichel/swap-agent/pkg/events"
	"github.com/jonasrmichel/swap-agent/pkg/lamports"
	"github.com/jonasrmichel/swap-agent/pkg/ledger"
	"github.com/jonasrmichel/swap-agent/pkg/store"
	"github.com/jonasrmichel/swap-agent/pkg/types"
	"github.com/jonasrmichel/swap-agent/pkg/venue"
)

var (
	configPath = flag.String("config", "", "Path to configuration file (JSON)")
	verbose    = flag.Bool("verbose", true, "Enable verbose output")
	dryRun     = flag.Bool("dry-run", false, "Quote the route without executing")
	once       = flag.Bool("once", false, "Run one cycle and exit")
	interval   = flag.Duration("interval", 15*time.Second, "Time between cycles")
	amountIn   = flag.Uint64("amount", 10_000_000, "Input amount for the route, in base units")
)

func main() {
	flag.Parse()

	printBanner()

	// Load configuration
	var cfg *config.Config
	var err error

	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.LoadFromEnv()
	}

	cfg.Verbose = *verbose
	if *dryRun {
		cfg.DryRun = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	// Balance substrate, record store, venue adapters
	book := ledger.New(log)
	records := store.New(log)
	registry := venue.NewRegistry()
	for _, pool := range cfg.EnabledVenues() {
		registry.Register(venue.NewAMM(book, pool, log))
	}

	// Audit sinks
	sink, cleanup, err := setupSinks(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up audit sinks: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	engine := agent.New(records, book, registry, sink, log)

	// Initialize the agent and fund accounts
	auth := types.AddressOf(cfg.Agent.Authority)
	if _, err := engine.Initialize(auth, cfg.Agent.MinProfitThreshold, cfg.Agent.MaxSlippageBps); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing agent: %v\n", err)
		os.Exit(1)
	}
	for _, f := range cfg.Funding {
		book.Credit(types.AddressOf(f.Account), types.Asset(f.Asset), f.Amount)
	}

	printConfig(cfg)

	if len(cfg.Funding) == 0 {
		fmt.Fprintln(os.Stderr, "No funded accounts configured; nothing to route")
		os.Exit(1)
	}
	trader := types.AddressOf(cfg.Funding[0].Account)

	// Run cycles
	if *once {
		runCycle(ctx, engine, book, registry, cfg, auth, trader, log)
	} else {
		runLoop(ctx, engine, book, registry, cfg, auth, trader, log)
	}

	// Print final stats
	stats := engine.Stats()
	fmt.Println()
	fmt.Println("Execution statistics:")
	fmt.Printf("  - Attempts:          %d\n", stats.Attempts)
	fmt.Printf("  - Successful:        %d\n", stats.Successful)
	fmt.Printf("  - Failed:            %d\n", stats.Failed)
	fmt.Printf("  - Rejected upfront:  %d\n", stats.RejectedUpfront)
	fmt.Printf("  - Profit shortfalls: %d\n", stats.ProfitShortfalls)
	if rec, err := engine.Config(auth); err == nil {
		fmt.Printf("  - Total trades:      %d\n", rec.TotalTrades)
		fmt.Printf("  - Total profit:      %s SOL\n", lamports.FormatSOL(rec.TotalProfit))
	}
	fmt.Println("Agent stopped.")
}

// runLoop runs execution cycles until the context is canceled.
func runLoop(ctx context.Context, engine *agent.Engine, book *ledger.Ledger, registry *venue.Registry,
	cfg *config.Config, auth, trader types.Address, log *zap.Logger) {

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	runCycle(ctx, engine, book, registry, cfg, auth, trader, log)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCycle(ctx, engine, book, registry, cfg, auth, trader, log)
		}
	}
}

// runCycle quotes a two-leg SOL -> USDC -> SOL route across the first two
// enabled venues and executes it if the quoted round trip is profitable.
func runCycle(ctx context.Context, engine *agent.Engine, book *ledger.Ledger, registry *venue.Registry,
	cfg *config.Config, auth, trader types.Address, log *zap.Logger) {

	pools := cfg.EnabledVenues()
	if len(pools) < 2 {
		log.Warn("need at least two enabled venues to route")
		return
	}

	req, quoted, err := buildRoute(book, registry, cfg, trader, pools[0].Venue, pools[1].Venue)
	if err != nil {
		log.Warn("no route this cycle", zap.Error(err))
		return
	}

	log.Info("route quoted",
		zap.String("path", req.PathString()),
		zap.Uint64("amount_in", *amountIn),
		zap.Uint64("quoted_profit", quoted),
		zap.Uint64("declared_profit", req.ExpectedProfit))

	if cfg.DryRun {
		log.Info("dry run: skipping execution", zap.String("id", req.ID))
		return
	}

	result, err := engine.Execute(ctx, auth, ledger.WalletSigner(trader), req)
	if err != nil {
		log.Warn("execution rejected", zap.String("id", req.ID), zap.Error(err))
		return
	}
	if cfg.Verbose {
		fmt.Printf("  %s\n", result)
	}
}

// buildRoute quotes both legs against current reserves and declares the
// quoted profit, discounted by the configured slippage tolerance.
func buildRoute(book *ledger.Ledger, registry *venue.Registry, cfg *config.Config,
	trader types.Address, first, second types.Venue) (*types.SwapRequest, uint64, error) {

	const (
		solAsset  = types.Asset("SOL")
		usdcAsset = types.Asset("USDC")
	)

	a, ok := registry.Get(first)
	if !ok {
		return nil, 0, fmt.Errorf("no adapter for %s", first)
	}
	b, ok := registry.Get(second)
	if !ok {
		return nil, 0, fmt.Errorf("no adapter for %s", second)
	}
	ammA, okA := a.(*venue.AMM)
	ammB, okB := b.(*venue.AMM)
	if !okA || !okB {
		return nil, 0, fmt.Errorf("route quoting needs AMM adapters")
	}

	// Quote against a throwaway scope so reserves are read consistently.
	tx := book.Begin()
	ec := venue.ExecContext{Tx: tx, User: trader}
	out1, err := ammA.Quote(ec, solAsset, usdcAsset, *amountIn)
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}
	min1 := lamports.MinAmountOut(out1, cfg.Agent.MaxSlippageBps)
	out2, err := ammB.Quote(ec, usdcAsset, solAsset, min1)
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}
	tx.Rollback()

	min2 := lamports.MinAmountOut(out2, cfg.Agent.MaxSlippageBps)
	quoted := lamports.Profit(*amountIn, out2)
	declared := lamports.Profit(*amountIn, min2)
	if declared < cfg.Agent.MinProfitThreshold {
		return nil, 0, fmt.Errorf("quoted profit %d below threshold %d", declared, cfg.Agent.MinProfitThreshold)
	}

	return &types.SwapRequest{
		ID:             uuid.NewString(),
		ExpectedProfit: declared,
		SlippageBps:    cfg.Agent.MaxSlippageBps,
		Legs: []types.SwapLeg{
			{Venue: first, AmountIn: *amountIn, MinimumAmountOut: min1, AssetIn: solAsset, AssetOut: usdcAsset},
			{Venue: second, AmountIn: min1, MinimumAmountOut: min2, AssetIn: usdcAsset, AssetOut: solAsset},
		},
	}, quoted, nil
}

// setupSinks wires the configured audit sinks.
func setupSinks(cfg *config.Config, log *zap.Logger) (events.Sink, func(), error) {
	sinks := events.MultiSink{events.NewLogSink(log)}
	var closers []func()

	if cfg.Audit.SQLitePath != "" {
		db, err := events.NewSQLiteSink(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, db)
		closers = append(closers, func() { db.Close() })
	}

	if cfg.Audit.ListenAddr != "" {
		ws := events.NewWebSocketSink(log)
		sinks = append(sinks, ws)
		closers = append(closers, func() { ws.Close() })

		mux := http.NewServeMux()
		mux.Handle("/events", ws)
		srv := &http.Server{Addr: cfg.Audit.ListenAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("event feed server failed", zap.Error(err))
			}
		}()
		closers = append(closers, func() { srv.Close() })
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return sinks, cleanup, nil
}

// newLogger builds the process logger.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// printBanner prints the application banner.
func printBanner() {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║          Swap Agent - Atomic Arbitrage Executor           ║")
	fmt.Println("║                                                           ║")
	fmt.Println("║   Routes value across DEX venues under profit guarantees  ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
}

// printConfig prints the current configuration.
func printConfig(cfg *config.Config) {
	fmt.Println("Configuration:")
	fmt.Printf("  - Min profit threshold: %d\n", cfg.Agent.MinProfitThreshold)
	fmt.Printf("  - Max slippage: %d bps (%.2f%%)\n", cfg.Agent.MaxSlippageBps, float64(cfg.Agent.MaxSlippageBps)/100)
	fmt.Printf("  - Dry run: %v\n", cfg.DryRun)
	fmt.Println()

	fmt.Println("Enabled venues:")
	for _, pool := range cfg.EnabledVenues() {
		fmt.Printf("  - %s (fee %d bps)\n", pool.Venue, pool.FeeBps)
	}
	fmt.Println()
	fmt.Println("Starting agent...")
	fmt.Println()
}
