package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracelane/tracelane/internal/auth"
	"github.com/tracelane/tracelane/internal/config"
	"github.com/tracelane/tracelane/internal/ledger"
	"github.com/tracelane/tracelane/internal/orders"
	"github.com/tracelane/tracelane/internal/server"
	"github.com/tracelane/tracelane/internal/users"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tracelane",
	Short: "Tracelane - tamper-evident order ledger",
	Long:  `An append-only hash-chained ledger with an order workflow registry on top`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "tracelane.yaml", "config file path")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(verifyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tracelane v0.1.0")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the ledger data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := os.MkdirAll(cfg.Node.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		ledgerPath := filepath.Join(cfg.Node.DataDir, "ledger.db")
		store, err := ledger.Open(ledgerPath)
		if err != nil {
			return fmt.Errorf("failed to initialize ledger: %w", err)
		}
		defer store.Close()

		fmt.Printf("Initialized ledger: %s\n", ledgerPath)
		fmt.Printf("Chain length: %d\n", store.Len())
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the persisted chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, err := ledger.Open(filepath.Join(cfg.Node.DataDir, "ledger.db"))
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer store.Close()

		if te := store.Check(); te != nil {
			return fmt.Errorf("chain verification failed: %s", te.Error())
		}
		fmt.Printf("Chain valid. Length: %d\n", store.Len())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ledger HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is required for serve")
		}
		if err := os.MkdirAll(cfg.Node.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := ledger.Open(filepath.Join(cfg.Node.DataDir, "ledger.db"))
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer store.Close()
		log.Printf("ledger loaded, chain length %d", store.Len())

		if te := store.Check(); te != nil {
			log.Printf("WARNING: persisted chain failed verification: %s", te.Error())
		}

		dir, err := users.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect actor directory: %w", err)
		}
		defer dir.DB.Close()
		if err := dir.EnsureSchema(ctx); err != nil {
			return err
		}

		registry := orders.NewRegistry(store)
		srv := server.New(store, registry, dir, auth.NewSessions(), cfg.Server.CORSOrigin)

		httpSrv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("listening on %s", cfg.Server.Addr)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			log.Println("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				log.Printf("shutdown: %v", err)
			}
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
