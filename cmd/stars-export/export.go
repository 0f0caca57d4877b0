package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/stars-export/pkg/cache"
	"github.com/Sternrassler/stars-export/pkg/client"
	"github.com/Sternrassler/stars-export/pkg/config"
	"github.com/Sternrassler/stars-export/pkg/export"
	"github.com/Sternrassler/stars-export/pkg/fetch"
	"github.com/Sternrassler/stars-export/pkg/logging"
	"github.com/Sternrassler/stars-export/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// exportOptions holds the export flags. Zero values defer to the config.
type exportOptions struct {
	configPath  string
	apiURL      string
	username    string
	outputDir   string
	logDir      string
	logLevel    string
	formats     []string
	threshold   int
	pausePolicy string
	jitter      bool
	resumeFrom  string
	redisAddr   string
	metricsFile string
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch starred repositories and write export files",
		Long: `Fetch every repository the user has starred and write them to the
output directory. If a page request fails, the repositories fetched so far
are still written and the address of the failed page is printed so the run
can be resumed with --resume-from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}
	addExportFlags(cmd, opts)

	return cmd
}

func addExportFlags(cmd *cobra.Command, opts *exportOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")
	flags.StringVar(&opts.apiURL, "api-url", "", "GitHub API base URL")
	flags.StringVarP(&opts.username, "username", "u", "", "GitHub username (prompted when empty)")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for export files")
	flags.StringVar(&opts.logDir, "log-dir", "", "directory for the log file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringSliceVarP(&opts.formats, "format", "f", nil, "export formats: json, csv, xlsx or all")
	flags.IntVar(&opts.threshold, "threshold", 0, "pause when remaining requests fall to this value")
	flags.StringVar(&opts.pausePolicy, "pause-policy", "", `pause length: "reset" waits until the budget resets, "fixed" waits the fallback period`)
	flags.BoolVar(&opts.jitter, "jitter", false, "wait a random 1-11 seconds between pages")
	flags.StringVar(&opts.resumeFrom, "resume-from", "", "page URL to resume a failed export from")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for ETag page caching")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
}

// loadConfig reads the config file and applies flags the user set.
func loadConfig(cmd *cobra.Command, opts *exportOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = opts.apiURL
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}
	if flags.Changed("log-dir") {
		cfg.Log.Dir = opts.logDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("format") {
		cfg.Output.Formats = opts.formats
	}
	if flags.Changed("threshold") {
		cfg.RateLimit.Threshold = opts.threshold
	}
	if flags.Changed("pause-policy") {
		cfg.RateLimit.Policy = opts.pausePolicy
	}
	if flags.Changed("jitter") {
		cfg.RateLimit.Jitter = opts.jitter
	}
	if flags.Changed("redis-addr") {
		cfg.Cache.RedisAddr = opts.redisAddr
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.TextfilePath = opts.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	formats, err := cfg.Formats()
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.Output.Dir, cfg.Log.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	_, closeLog, err := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
		File:   cfg.LogPath(),
	})
	if err != nil {
		return err
	}
	defer closeLog()

	logger := logging.NewLogger("cli")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.CheckConnectivity(ctx, &http.Client{Timeout: cfg.Timeout()}, cfg.API.BaseURL); err != nil {
		logger.Error().Err(err).Msg("No connection to GitHub")
		return err
	}

	prompt := newPrompter(cmd)
	username := opts.username
	if username == "" {
		if username, err = prompt.Username(); err != nil {
			return err
		}
	}
	token, err := prompt.Token()
	if err != nil {
		return err
	}

	clientCfg := client.DefaultConfig(token)
	clientCfg.BaseURL = cfg.API.BaseURL
	clientCfg.APIVersion = cfg.API.Version
	clientCfg.UserAgent = cfg.API.UserAgent
	clientCfg.Timeout = cfg.Timeout()
	clientCfg.PerPage = cfg.API.PerPage
	if cfg.Cache.RedisAddr != "" {
		redisClient, cacheManager := openCache(ctx, cfg, logger)
		if redisClient != nil {
			defer redisClient.Close()
			clientCfg.Cache = cacheManager
		}
	}

	gh, err := client.New(clientCfg)
	if err != nil {
		return err
	}

	if err := gh.ValidateCredentials(ctx, username); err != nil {
		logger.Error().Err(err).Str("username", username).Msg("Credential check failed")
		return err
	}

	governor, err := cfg.Governor()
	if err != nil {
		return err
	}
	fetcher, err := fetch.New(gh, fetch.Config{
		Governor: governor,
		Clock:    newClock(),
		Jitter:   cfg.Jitter(),
	})
	if err != nil {
		return err
	}

	start := opts.resumeFrom
	if start == "" {
		start = gh.StarredURL(username)
	} else {
		logger.Info().Str("resume_from", start).Msg("Resuming export")
	}

	result, runErr := fetcher.Run(ctx, start)

	exporter, err := export.New(export.Config{OutputDir: cfg.Output.Dir, BaseName: cfg.Output.BaseName})
	if err != nil {
		return err
	}
	paths, err := exporter.Export(result.Records, formats)
	if err != nil {
		return err
	}

	for _, p := range paths {
		cmd.Printf("Wrote %s\n", p)
	}

	if runErr != nil {
		cmd.Printf("Partial export: %d repositories from %d pages before the failure: %v\n",
			len(result.Records), result.Pages, runErr)
		cmd.Printf("Resume with: stars-export --resume-from %q\n", result.NextCursor)
	} else {
		cmd.Printf("Exported %d starred repositories for %s\n", len(result.Records), username)
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	}

	// An interrupted run still wrote its partial results but is not a success.
	if errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("interrupted: %w", runErr)
	}
	return nil
}

// openCache connects to Redis. A failed ping disables caching for the run.
func openCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*redis.Client, *cache.Manager) {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
		DB:   cfg.Cache.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("Redis unavailable, page cache disabled")
		redisClient.Close()
		return nil, nil
	}

	logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis page cache")
	return redisClient, cache.NewManager(redisClient, cfg.CacheTTL())
}
