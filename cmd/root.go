package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wpsleuth/wpsleuth/internal/config"
	"github.com/wpsleuth/wpsleuth/internal/logger"
	"github.com/wpsleuth/wpsleuth/pkg/advisory"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wpsleuth",
	Short: "WordPress site scanner and vulnerability risk engine",
	Long: `wpsleuth fingerprints WordPress installations, inventories their core,
plugin and theme versions, matches them against a vulnerability advisory
dataset and reduces the findings to a single 0-100 risk score.

USAGE:
  wpsleuth scan example.com            # Scan one site
  wpsleuth scan a.com b.com --json     # Scan several sites, JSON output
  wpsleuth serve                       # Expose the scanner over HTTP
  wpsleuth advisories contact-form-7   # Inspect the advisory dataset`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		var err error
		log, err = logger.New(cfg.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			// Sync errors on stdout/stderr are expected on Linux.
			if err := log.Sync(); err != nil {
				if err.Error() != "sync /dev/stdout: invalid argument" && err.Error() != "sync /dev/stderr: invalid argument" {
					fmt.Fprintf(os.Stderr, "Warning: failed to sync logger: %v\n", err)
				}
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (json, console)")
	viper.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logger.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindEnv("logger.level", "WPSLEUTH_LOG_LEVEL")
	viper.BindEnv("logger.format", "WPSLEUTH_LOG_FORMAT")

	rootCmd.PersistentFlags().Duration("timeout", config.DefaultConfig().Scanner.Timeout, "overall per-scan deadline")
	rootCmd.PersistentFlags().Duration("probe-timeout", config.DefaultConfig().Scanner.ProbeTimeout, "per-probe timeout")
	rootCmd.PersistentFlags().Bool("allow-private", false, "allow scanning private and loopback addresses")
	viper.BindPFlag("scanner.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("scanner.probe_timeout", rootCmd.PersistentFlags().Lookup("probe-timeout"))
	viper.BindEnv("scanner.user_agent", "WPSLEUTH_USER_AGENT")

	rootCmd.PersistentFlags().String("advisories-file", "", "YAML advisory dataset (defaults to the compiled-in set)")
	rootCmd.PersistentFlags().Bool("match-unknown-versions", false, "match version-ranged advisories against components with unknown versions")
	viper.BindPFlag("advisories.file", rootCmd.PersistentFlags().Lookup("advisories-file"))
	viper.BindPFlag("advisories.match_unknown_versions", rootCmd.PersistentFlags().Lookup("match-unknown-versions"))
	viper.BindEnv("advisories.file", "WPSLEUTH_ADVISORIES_FILE")

	viper.BindEnv("database.dsn", "WPSLEUTH_DATABASE_DSN", "DATABASE_URL")
	viper.BindEnv("redis.addr", "WPSLEUTH_REDIS_ADDR", "REDIS_URL")
	viper.BindEnv("redis.password", "WPSLEUTH_REDIS_PASSWORD")
	viper.BindEnv("security.api_key", "WPSLEUTH_API_KEY")

	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "1h")
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")
	viper.SetDefault("redis.cache_ttl", "10m")
	viper.SetDefault("scanner.user_agent", config.DefaultConfig().Scanner.UserAgent)
	viper.SetDefault("scanner.block_private_ips", true)
	viper.SetDefault("scanner.host_delay", "100ms")
	viper.SetDefault("scanner.concurrency", 5)
	viper.SetDefault("security.rate_limit.requests_per_second", 10)
	viper.SetDefault("security.rate_limit.burst_size", 20)
	viper.SetDefault("telemetry.service_name", "wpsleuth")
	viper.SetDefault("telemetry.exporter_type", "otlp")
	viper.SetDefault("telemetry.endpoint", "localhost:4318")
	viper.SetDefault("telemetry.sample_rate", 1.0)
	viper.SetDefault("logger.output_paths", []string{"stdout"})
}

func initConfig() error {
	// Configuration comes from flags and env vars; no YAML file is required.
	viper.AutomaticEnv()
	viper.SetEnvPrefix("WPSLEUTH")

	cfg = config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if allow, _ := rootCmd.PersistentFlags().GetBool("allow-private"); allow {
		cfg.Scanner.BlockPrivateIPs = false
	}
	return nil
}

// loadAdvisories resolves the advisory dataset: a YAML file when configured,
// the compiled-in set otherwise.
func loadAdvisories() (advisory.Store, error) {
	if cfg.Advisories.File == "" {
		return advisory.Builtin(), nil
	}
	store, err := advisory.LoadFile(cfg.Advisories.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load advisory dataset: %w", err)
	}
	return store, nil
}
