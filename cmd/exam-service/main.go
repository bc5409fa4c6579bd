package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careerpath/internal/config"
	"careerpath/internal/examservice"
	"careerpath/internal/examservice/sqlite"
	"careerpath/internal/httpapi"
	"careerpath/internal/logging"
	"careerpath/internal/opentdb"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./careerpath.yaml when present)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	addr := flag.String("addr", "", "HTTP listen address, overrides service.addr")
	dbPath := flag.String("db", "", "SQLite database path, overrides service.db_path")
	seedFile := flag.String("seed", "", "YAML test definitions to load, overrides service.seed_file")

	importTest := flag.String("import-opentdb", "", "build a test with this id from OpenTriviaDB and exit")
	importTitle := flag.String("import-title", "General Knowledge", "title for the imported test")
	importAmount := flag.Int("import-amount", 10, "number of trivia questions to import")
	importCategory := flag.Int("import-category", 0, "OpenTriviaDB category id (0 for any)")
	importDifficulty := flag.String("import-difficulty", "", "easy, medium or hard")
	importMinutes := flag.Int("import-minutes", 15, "duration of the imported test")

	issueToken := flag.String("issue-token", "", "print a bearer token for this learner and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by --issue-token")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Service.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Service.DBPath = *dbPath
	}
	if *seedFile != "" {
		cfg.Service.SeedFile = *seedFile
	}

	if *issueToken != "" {
		token, err := httpapi.IssueToken(cfg.Service.JWTSecret, *issueToken, *tokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	repo, err := sqlite.Open(cfg.Service.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.Service.DBPath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	service := examservice.NewService(repo, logger)
	ctx := context.Background()

	if cfg.Service.SeedFile != "" {
		count, err := service.SeedFromFile(ctx, cfg.Service.SeedFile)
		if err != nil {
			logger.Error("seed tests", "file", cfg.Service.SeedFile, "loaded", count, "error", err)
			repo.Close()
			os.Exit(1)
		}
		logger.Info("tests seeded", "file", cfg.Service.SeedFile, "count", count)
	}

	if *importTest != "" {
		importCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		count, err := service.ImportTrivia(importCtx, opentdb.NewClient(&http.Client{Timeout: 20 * time.Second}), examservice.ImportRequest{
			Test: examservice.Test{
				ID:              *importTest,
				Title:           *importTitle,
				DurationMinutes: *importMinutes,
			},
			Query: opentdb.Query{
				Amount:     *importAmount,
				Category:   *importCategory,
				Difficulty: *importDifficulty,
			},
		})
		cancel()
		if err != nil {
			logger.Error("import trivia", "test_id", *importTest, "error", err)
			repo.Close()
			os.Exit(1)
		}
		logger.Info("trivia imported", "test_id", *importTest, "questions", count)
		return
	}

	if cfg.Service.JWTSecret == "" {
		logger.Warn("service.jwt_secret is empty; learners are identified by the X-Learner header")
	}

	server := &http.Server{
		Addr: cfg.Service.Addr,
		Handler: httpapi.NewRouter(service, httpapi.Options{
			JWTSecret: cfg.Service.JWTSecret,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("exam service listening", "addr", cfg.Service.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		return
	}
	logger.Info("server stopped")
}
