package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wpsleuth/wpsleuth/internal/api"
	"github.com/wpsleuth/wpsleuth/internal/cache"
	"github.com/wpsleuth/wpsleuth/internal/database"
	"github.com/wpsleuth/wpsleuth/internal/telemetry"
	"github.com/wpsleuth/wpsleuth/pkg/wpscan"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the scanner over an HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := viper.GetString("server.addr")

		advisories, err := loadAdvisories()
		if err != nil {
			return err
		}
		scanner := wpscan.NewScanner(cfg.Scanner, cfg.Advisories, advisories, log)

		tel, err := telemetry.New(cmd.Context(), cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer tel.Close()

		// Persistence and caching are optional collaborators: the API keeps
		// scanning without them, at reduced functionality.
		var store database.Store
		if cfg.Database.DSN != "" {
			store, err = database.NewStore(cfg.Database, log)
			if err != nil {
				log.Warnw("Persistence disabled", "error", err.Error())
				store = nil
			} else {
				defer store.Close()
			}
		}

		scanCache, err := cache.New(cfg.Redis, log)
		if err != nil {
			log.Warnw("Scan cache disabled", "error", err.Error())
			scanCache = nil
		}
		defer scanCache.Close()

		server := api.NewServer(api.Options{
			Scanner:    scanner,
			Store:      store,
			Cache:      scanCache,
			Advisories: advisories,
			Telemetry:  tel,
			Logger:     log,
			Security:   cfg.Security,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(addr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-quit:
			log.Infow("Shutting down", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		log.Infow("Server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindEnv("server.addr", "WPSLEUTH_ADDR")
	rootCmd.AddCommand(serveCmd)
}
