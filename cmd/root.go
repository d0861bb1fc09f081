package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/shiftcodeworker/config"
	"sjsage522/shiftcodeworker/helpers"
	"sjsage522/shiftcodeworker/internal/crawler"
	"sjsage522/shiftcodeworker/logger"
	"sjsage522/shiftcodeworker/services/cache"
	"sjsage522/shiftcodeworker/services/publisher"
	"sjsage522/shiftcodeworker/services/store"
	"sjsage522/shiftcodeworker/services/worker"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// flags holds the command line values before they are merged into the config
type flags struct {
	url             string
	csv             string
	dryRun          bool
	verbose         bool
	classTag        string
	classTokens     []string
	noClassHint     bool
	classMatchAll   bool
	includeExpired  bool
	expiredHeading  string
	expiredBoundary string
	activeHeading   string
	timeout         time.Duration
	retries         int
	discordWebhook  string
	pause           bool
}

// NewRootCommand builds the shiftcodes command on top of the environment config
func NewRootCommand(cfg *config.Config) *cobra.Command {
	cmd, _ := newRootCommand(cfg)
	return cmd
}

func newRootCommand(cfg *config.Config) (*cobra.Command, *flags) {
	f := &flags{}

	cmd := &cobra.Command{
		Use:          "shiftcodes",
		Short:        "Collect Borderlands 4 SHiFT codes into a CSV file",
		Long:         "Fetch the SHiFT code page, extract the active codes and append the ones not yet recorded to a CSV file.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags parsed; failures from here on are logged instead of printed by cobra
			cmd.SilenceErrors = true

			applyFlags(cmd, f, cfg)
			logger.InitVerbose(cfg.Verbose)

			if cfg.Pause {
				defer waitForEnter()
			}

			err := cfg.Validate()
			if err == nil {
				err = run(cmd.Context(), cfg)
			}
			if err != nil {
				logger.LogError("cmd", err, "Run failed")
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.url, "url", cfg.URL, "page to scrape")
	fs.StringVar(&f.csv, "csv", cfg.CSVPath, "CSV file recording known codes")
	fs.BoolVar(&f.dryRun, "dry-run", false, "report new codes without writing them")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	fs.StringVar(&f.classTag, "class-tag", cfg.ClassTag, "element holding a code")
	fs.StringArrayVar(&f.classTokens, "class-token", cfg.ClassTokens, "class token of a code element (repeatable)")
	fs.BoolVar(&f.noClassHint, "no-class-hint", false, "skip the targeted scan and scan the whole page")
	fs.BoolVar(&f.classMatchAll, "class-match-all", false, "require every class token instead of any")
	fs.BoolVar(&f.includeExpired, "include-expired", false, "keep codes listed in the expired section")
	fs.StringVar(&f.expiredHeading, "expired-heading", cfg.ExpiredHeading, "heading that opens the expired section")
	fs.StringVar(&f.expiredBoundary, "expired-boundary", cfg.ExpiredBoundary, `heading that closes the expired section: "rank" or "any"`)
	fs.StringVar(&f.activeHeading, "active-heading", cfg.ActiveHeading, "heading of the section whose table lists expiry dates")
	fs.DurationVar(&f.timeout, "timeout", cfg.FetchTimeout, "per request timeout")
	fs.IntVar(&f.retries, "retries", cfg.FetchMaxRetries, "retries after a transient fetch failure")
	fs.StringVar(&f.discordWebhook, "discord-webhook", cfg.DiscordWebhookURL, "Discord webhook notified about new codes")
	fs.BoolVar(&f.pause, "pause", false, "wait for Enter before exiting")

	return cmd, f
}

// applyFlags copies the flags the user set over the environment values
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("url") {
		cfg.URL = f.url
	}
	if changed("csv") {
		cfg.CSVPath = f.csv
	}
	if changed("class-tag") {
		cfg.ClassTag = f.classTag
	}
	if changed("class-token") {
		cfg.ClassTokens = f.classTokens
	}
	if changed("expired-heading") {
		cfg.ExpiredHeading = f.expiredHeading
	}
	if changed("expired-boundary") {
		cfg.ExpiredBoundary = f.expiredBoundary
	}
	if changed("active-heading") {
		cfg.ActiveHeading = f.activeHeading
	}
	if changed("timeout") {
		cfg.FetchTimeout = f.timeout
	}
	if changed("retries") {
		cfg.FetchMaxRetries = f.retries
	}
	if changed("discord-webhook") {
		cfg.DiscordWebhookURL = f.discordWebhook
	}

	cfg.DryRun = cfg.DryRun || f.dryRun
	cfg.Verbose = cfg.Verbose || f.verbose
	cfg.UseClassHint = cfg.UseClassHint && !f.noClassHint
	cfg.RequireAllClassTokens = cfg.RequireAllClassTokens || f.classMatchAll
	cfg.IncludeExpired = cfg.IncludeExpired || f.includeExpired
	cfg.Pause = cfg.Pause || f.pause
}

// run wires the services for one pass and reports the outcome
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Default

	log.Info().
		Str("url", cfg.URL).
		Str("csv", cfg.CSVPath).
		Bool("dry_run", cfg.DryRun).
		Str("environment", cfg.Environment).
		Msg("Starting run")

	fetcher := helpers.NewPageFetcher(helpers.FetchOptions{
		Timeout:      cfg.FetchTimeout,
		MaxRetries:   cfg.FetchMaxRetries,
		RetryWait:    cfg.FetchBackoff,
		RetryMaxWait: helpers.DefaultFetchOptions().RetryMaxWait,
	})

	publishers := initializePublishers(cfg)
	defer func() {
		for _, p := range publishers {
			if err := p.Close(); err != nil {
				log.Warn().Err(err).Str("publisher", p.Name()).Msg("Failed to close publisher")
			}
		}
	}()

	w := worker.NewWorker(fetcher, store.NewCSVStore(cfg.CSVPath), publishers, worker.Options{
		URL:     cfg.URL,
		DryRun:  cfg.DryRun,
		Extract: ExtractConfig(cfg),
	})
	if cfg.MemcacheAddr != "" {
		w.WithGuard(cache.NewBlockGuard(cache.NewMemcacheService(cfg.MemcacheAddr), cfg.RateLimitBlock))
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Rate limit block cache enabled")
	}

	summary, err := w.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("added", len(summary.Added)).
		Int("skipped_existing", summary.SkippedExisting).
		Int("expired_excluded", summary.ExpiredExcluded).
		Str("strategy", string(summary.Strategy)).
		Bool("fallback_used", summary.FallbackUsed).
		Bool("dry_run", summary.DryRun).
		Int("warnings", len(summary.Warnings)).
		Msg("Run finished")
	return nil
}

// ExtractConfig maps the configuration onto extractor settings
func ExtractConfig(cfg *config.Config) crawler.ExtractConfig {
	return crawler.ExtractConfig{
		UseClassHint: cfg.UseClassHint,
		Selectors: crawler.Selectors{
			Tag:         cfg.ClassTag,
			ClassTokens: cfg.ClassTokens,
			RequireAll:  cfg.RequireAllClassTokens,
		},
		IncludeExpired:  cfg.IncludeExpired,
		ExpiredHeading:  cfg.ExpiredHeading,
		ExpiredBoundary: crawler.BoundaryMode(cfg.ExpiredBoundary),
		ActiveHeading:   cfg.ActiveHeading,
	}
}

// initializePublishers creates the notification targets that are configured
func initializePublishers(cfg *config.Config) []publisher.Publisher {
	var publishers []publisher.Publisher

	if cfg.RedisAddr != "" {
		publishers = append(publishers, publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
			cfg.URL,
		))
		logger.Info("Publishing to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.DiscordWebhookURL != "" {
		publishers = append(publishers, publisher.NewDiscordPublisher(cfg.DiscordWebhookURL, cfg.URL))
		logger.Info("Publishing to Discord webhook")
	}

	return publishers
}

// waitForEnter keeps a console window open until the user presses Enter
func waitForEnter() {
	fmt.Fprint(os.Stderr, "Press Enter to exit...")
	bufio.NewReader(os.Stdin).ReadString('\n')
}

// interactive reports whether the process was started without arguments from a terminal
func interactive() bool {
	return len(os.Args) == 1 && isatty.IsTerminal(os.Stdin.Fd())
}

// Execute runs the root command until it finishes or the process is signalled
func Execute() error {
	cfg := config.LoadConfig()
	cfg.Pause = interactive()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(cfg).ExecuteContext(ctx)
}
