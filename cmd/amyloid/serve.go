package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/amyloid-notes/pkg/api"
	"github.com/hazyhaar/amyloid-notes/pkg/chassis"
	"github.com/hazyhaar/amyloid-notes/pkg/corpus"
	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	"github.com/hazyhaar/amyloid-notes/pkg/mcpquic"
	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	stdio := fs.Bool("mcp-stdio", false, "serve MCP over stdin/stdout instead of HTTP")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	norm, err := textnorm.NewEnglish()
	if err != nil {
		fatal(logger, "sentence tokenizer", err)
	}

	reg := keywords.NewRegistry(cfg.KeywordsDir)
	if err := reg.Load(); err != nil {
		fatal(logger, "failed to load keyword groups", err)
	}
	logger.Info("keyword groups loaded", "groups", reg.GroupCount(), "keywords", reg.TotalKeywords())

	store := openStore(cfg, logger)
	defer store.Close()

	svc := &api.Service{Normalizer: norm, Keywords: reg, Store: store, Logger: logger}
	mcpSrv := server.NewMCPServer("amyloid-notes", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(mcpSrv, svc)

	if *stdio {
		logger.Info("serving MCP on stdio")
		if err := server.ServeStdio(mcpSrv); err != nil {
			fatal(logger, "mcp stdio", err)
		}
		return
	}

	// SIGHUP: hot reload keyword groups.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading keyword groups")
			if err := reg.Reload(); err != nil {
				logger.Error("reload failed", "error", err)
			} else {
				logger.Info("keyword groups reloaded", "groups", reg.GroupCount(), "keywords", reg.TotalKeywords())
			}
		}
	}()

	if cfg.CheckInterval > 0 {
		go corpus.NewChecker(store, logger, cfg.CheckInterval).Start(ctx)
	}

	if cfg.MCPAddr != "" {
		startMCPQUIC(ctx, cfg, mcpSrv, logger)
	}

	router := api.NewRouter(svc)

	// tls_addr: the same router over TLS and HTTP/3, MCP on the same UDP port.
	if cfg.TLSAddr != "" {
		ch, err := chassis.New(chassis.Config{
			Addr:      cfg.TLSAddr,
			CertFile:  cfg.MCPCert,
			KeyFile:   cfg.MCPKey,
			Handler:   router,
			MCPServer: mcpSrv,
			Logger:    logger,
		})
		if err != nil {
			fatal(logger, "chassis", err)
		}
		go func() {
			if err := ch.Start(ctx); err != nil {
				fatal(logger, "chassis", err)
			}
		}()
		defer ch.Stop(context.Background())
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}
	go func() {
		logger.Info("amyloid-notes listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	srv.Shutdown(context.Background())
}

func startMCPQUIC(ctx context.Context, cfg config, mcpSrv *server.MCPServer, logger *slog.Logger) {
	if cfg.MCPCert == "" {
		logger.Warn("mcp_cert not set, using a self-signed certificate")
	}
	tlsCfg, err := mcpquic.LoadTLS(cfg.MCPCert, cfg.MCPKey)
	if err != nil {
		fatal(logger, "mcp tls", err)
	}

	l, err := mcpquic.NewListener(cfg.MCPAddr, tlsCfg, mcpSrv, logger)
	if err != nil {
		fatal(logger, "mcp quic listen", err)
	}
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	go func() {
		if err := l.Serve(ctx); err != nil && ctx.Err() == nil {
			logger.Error("mcp quic serve", "error", err)
		}
	}()
}

// openStore opens the corpus database, seeds the built-in datasets and
// applies the path overrides from the config.
func openStore(cfg config, logger *slog.Logger) *corpus.Store {
	store, err := corpus.OpenStore(cfg.CorpusDB)
	if err != nil {
		fatal(logger, "open corpus db", err)
	}
	if err := store.Seed(corpus.All()); err != nil {
		fatal(logger, "seed datasets", err)
	}
	for id, path := range cfg.Datasets {
		if err := store.SetPath(id, path); err != nil {
			fatal(logger, "dataset override", err)
		}
	}
	return store
}
