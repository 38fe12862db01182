package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dedi/internal/api"
	"dedi/internal/app"
	"dedi/internal/cachemanager"
	"dedi/internal/config"
	"dedi/internal/flags"
	"dedi/internal/journal"
	"dedi/internal/keys"
	"dedi/internal/log"
	"dedi/internal/mode"
	"dedi/internal/mode/shared"
	"dedi/internal/session"
	"dedi/internal/tracing"
	"dedi/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "dedi",
	Short:   "A terminal ui for decentralized data registries",
	Long:    `A terminal user interface for browsing and managing namespaces and versioned registries in a decentralized data registry.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/dedi/config.yaml)")
	rootCmd.Flags().String("endpoint", "",
		"registry API endpoint (default: the public sandbox)")
	rootCmd.Flags().Bool("debug", false,
		"write a debug log next to the working directory")

	// Bind flags to viper
	_ = viper.BindPFlag("endpoint", rootCmd.Flags().Lookup("endpoint"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("endpoint", defaults.Endpoint)
	viper.SetDefault("request_timeout", defaults.RequestTimeout)
	viper.SetDefault("cache_ttl", defaults.CacheTTL)
	viper.SetDefault("watch_config", defaults.WatchConfig)
	viper.SetDefault("ui.show_counts", defaults.UI.ShowCounts)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("theme.highlight", defaults.Theme.Highlight)
	viper.SetDefault("theme.subtle", defaults.Theme.Subtle)
	viper.SetDefault("theme.error", defaults.Theme.Error)
	viper.SetDefault("theme.success", defaults.Theme.Success)

	// DEDI_ENDPOINT beats the config file, the --endpoint flag beats both.
	viper.SetEnvPrefix("DEDI")
	_ = viper.BindEnv("endpoint")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .dedi/config.yaml (current directory)
		// 2. ~/.config/dedi/config.yaml (user config)
		if _, err := os.Stat(".dedi/config.yaml"); err == nil {
			viper.SetConfigFile(".dedi/config.yaml")
		} else {
			viper.AddConfigPath(config.Dir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create the default user config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := filepath.Join(config.Dir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// loadConfig re-reads the config file. The app shell calls this through
// its reload hook when the watcher reports a change.
func loadConfig() (*config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("re-reading config: %w", err)
	}
	var fresh config.Config
	if err := viper.Unmarshal(&fresh); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &fresh, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	debug := os.Getenv("DEDI_DEBUG") != ""
	if flagDebug, _ := cmd.Flags().GetBool("debug"); flagDebug {
		debug = true
	}
	if debug {
		cleanup, err := log.InitWithTeaLog("debug.log", "dedi")
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "dedi starting", "version", version, "config", viper.ConfigFileUsed())
	}

	tracer, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tracer.Shutdown(ctx)
	}()

	client, err := api.NewClient(api.Config{
		BaseURL: cfg.Endpoint,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating registry client: %w", err)
	}

	// The journal is best-effort: the app runs without local history.
	var store *journal.Store
	if store, err = journal.Open(cfg.ResolvedJournalPath()); err != nil {
		log.Warn(log.CatJournal, "Activity journal unavailable", "error", err)
		store = nil
	} else {
		defer func() { _ = store.Close() }()
	}

	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success)

	configFilePath := viper.ConfigFileUsed()
	services := mode.Services{
		Client:     client,
		Session:    session.NewContext(),
		Config:     &cfg,
		ConfigPath: configFilePath,
		Journal:    store,
		Flags:      flags.New(cfg.Flags),
		Keys:       keys.DefaultKeyMap(),
		NamespaceCache: cachemanager.NewInMemoryCacheManager[[]api.Namespace](
			"namespaces", cfg.CacheTTL, 2*cfg.CacheTTL),
		QueryCache: cachemanager.NewInMemoryCacheManager[*api.NamespaceQuery](
			"queries", cfg.CacheTTL, 2*cfg.CacheTTL),
		Clipboard: shared.SystemClipboard{},
		Clock:     shared.RealClock{},
	}

	zone.NewGlobal()
	model := app.New(services, loadConfig)
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
