package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dusk-indust/shopsplit/internal/config"
	"github.com/dusk-indust/shopsplit/internal/httpapi"
	"github.com/dusk-indust/shopsplit/internal/intent"
	"github.com/dusk-indust/shopsplit/internal/mcptools"
	"github.com/dusk-indust/shopsplit/internal/orchestrator"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Addr      string
	Merchants string
	ConfigDir string
	Demo      bool
	Verbose   bool
	ServeMCP  bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("shopsplit", flag.ContinueOnError)
	fs.StringVar(&flags.Addr, "addr", "", "HTTP API listen address (default :8020)")
	fs.StringVar(&flags.Merchants, "merchants", "", "comma-separated merchant base URLs")
	fs.StringVar(&flags.ConfigDir, "config", ".", "directory containing shopsplit.yml")
	fs.BoolVar(&flags.Demo, "demo", false, "run built-in demo storefronts and shop against them")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Defaults()

	if flags.Addr != "" {
		cfg.ListenAddr = flags.Addr
	}
	if flags.Merchants != "" {
		cfg.MerchantURLs = splitList(flags.Merchants)
	}
	if flags.Verbose {
		cfg.Verbose = true
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.Demo {
		urls, shutdown, err := startDemoMerchants(logger)
		if err != nil {
			return fmt.Errorf("starting demo storefronts: %w", err)
		}
		defer shutdown()
		cfg.MerchantURLs = append(cfg.MerchantURLs, urls...)
	}

	if len(cfg.MerchantURLs) == 0 {
		return fmt.Errorf("no merchants configured: pass -merchants, set merchantUrls in shopsplit.yml, or use -demo")
	}

	engine := orchestrator.New(
		orchestrator.Config{
			MerchantURLs:          cfg.MerchantURLs,
			DiscoveryTimeout:      cfg.DiscoveryTimeout(),
			SearchTimeout:         cfg.SearchTimeout(),
			CheckoutTimeout:       cfg.CheckoutTimeout(),
			MaxResultsPerMerchant: cfg.MaxResultsPerMerchant,
		},
		intent.NewKeywordParser(),
		ucp.NewHTTPClient(ucp.WithTimeout(cfg.DiscoveryTimeout())),
		logger,
	)

	if flags.ServeMCP {
		server := mcptools.NewShopsplitMCPServer(engine)
		return mcptools.RunShopsplitMCPServerStdio(ctx, server)
	}

	api := httpapi.NewServer(engine, logger)
	if err := api.Start(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("starting http api: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.CheckoutTimeout())
	defer cancel()
	return api.Stop(shutdownCtx)
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
