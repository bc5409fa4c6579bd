package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"careerpath/internal/cli"
	"careerpath/internal/config"
	"careerpath/internal/examclient"
	"careerpath/internal/logging"
	"careerpath/internal/store"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./careerpath.yaml when present)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	testID := flag.String("test", "", "test id to attempt (required)")
	server := flag.String("server", "", "exam service base URL, overrides api.base_url")
	token := flag.String("token", "", "bearer token, overrides api.token")
	backend := flag.String("store", "", "progress store: memory, sqlite or redis")
	flag.Parse()

	if *testID == "" {
		fmt.Fprintln(os.Stderr, "error: --test is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.API.BaseURL = *server
	}
	if *token != "" {
		cfg.API.Token = *token
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}

	// Logs go to stderr so they never interleave with the question view.
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if cfg.ConfigFile != "" {
		logger.Debug("config loaded", "file", cfg.ConfigFile, "env_file", cfg.EnvFileLoaded)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, err := store.Open(ctx, cfg.Store.Options())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: open progress store:", err)
		os.Exit(1)
	}
	defer progress.Close()

	client := examclient.New(examclient.Config{
		BaseURL:        cfg.API.BaseURL,
		DefaultHeaders: cfg.API.DefaultHeaders(),
		Timeout:        cfg.API.Timeout,
	}, &http.Client{Timeout: cfg.API.Timeout})
	logger.Debug("exam service", "base_url", client.BaseURL(), "test_id", *testID, "store", cfg.Store.Backend)

	err = cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
		TestID:        *testID,
		API:           client,
		Store:         progress,
		Logger:        logger,
		FallbackPath:  cfg.Session.FallbackPath,
		SubmitTimeout: cfg.Session.SubmitTimeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		progress.Close()
		os.Exit(1)
	}
}
