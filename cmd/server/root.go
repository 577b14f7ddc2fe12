package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/examdrill/backend/internal/api"
	"github.com/examdrill/backend/internal/infrastructure/config"
	"github.com/examdrill/backend/internal/service"
	"github.com/examdrill/backend/internal/store"

	_ "github.com/examdrill/backend/docs" // generated swagger docs
)

const purgeInterval = 10 * time.Minute

var rootCmd = &cobra.Command{
	Use:   "examdrill",
	Short: "Exam practice backend",
	Long:  "Examdrill serves a multiple-choice question bank: randomized exams, grading, wrong-answer review and history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DB_PATH env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// openStore opens the database named by --db (highest priority) or DB_PATH.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.SQLiteStore, error) {
	path := cfg.DBPath
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		path = p
	}
	if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	return store.NewSQLite(path)
}

func runServer(cmd *cobra.Command) error {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── Dependencies ────────────────────────────────────────────────
	db, err := openStore(cmd, cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	exams := service.NewExamService(db, logger, cfg.ExamStateTTL)
	history := service.NewHistoryService(db, logger)
	handler := api.NewHandler(db, exams, history, logger, api.Options{
		TriagePageSize:  cfg.TriagePageSize,
		DefaultExamSize: cfg.DefaultExamSize,
	})

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeExpiredExams(ctx, db, logger)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		return err
	}
	return nil
}

// purgeExpiredExams drops unsubmitted exams past their lifetime until ctx
// is cancelled.
func purgeExpiredExams(ctx context.Context, db *store.SQLiteStore, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.PurgeExpiredExamStates(ctx, time.Now())
			if err != nil {
				logger.Error("failed to purge exam states", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired exams", "count", n)
			}
		}
	}
}
