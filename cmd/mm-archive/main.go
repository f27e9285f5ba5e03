// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mm-archive CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Elambeth/mm-archive/internal/api"
	"github.com/Elambeth/mm-archive/internal/progress"
	"github.com/Elambeth/mm-archive/internal/query"
	"github.com/Elambeth/mm-archive/internal/render"
	"github.com/Elambeth/mm-archive/internal/session"
	"github.com/Elambeth/mm-archive/internal/viewer"
	"github.com/Elambeth/mm-archive/pkg/types"
)

// errReported marks an error the command already showed to the user.
var errReported = errors.New("reported")

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built in PersistentPreRunE.
	logger = zap.NewNop()

	// opener launches the document viewer. Tests replace it.
	opener viewer.Opener = viewer.SystemOpener{}
)

// rootCmd is the base command for the mm-archive CLI.
var rootCmd = &cobra.Command{
	Use:   "mm-archive",
	Short: "Ask questions of a research paper archive",
	Long: `mm-archive asks natural-language questions of a research paper archive.
Answers come back with citations to the papers they draw on; each citation
opens the source PDF at the cited page.

The last question and answer are kept between runs. Use "last" to show
them again and "reset" to forget them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		log, err := newLogger(viper.GetString("log.level"), verbose)
		if err != nil {
			return err
		}
		logger = log
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mm-archive.yaml or ~/.config/mm-archive/mm-archive.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mm-archive")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mm-archive"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("MM_ARCHIVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Reading config:", err)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.user_agent", "mm-archive/"+version)
	v.SetDefault("api.list_timeout", "30s")
	v.SetDefault("store.backend", string(types.StoreSQLite))
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("progress.interval", "2s")
	v.SetDefault("progress.clear_delay", "500ms")
	v.SetDefault("viewer.base_url", "http://localhost:8000")
	v.SetDefault("viewer.pdf_dir", "pdfs")
	v.SetDefault("viewer.addr", ":8080")
	v.SetDefault("log.level", "info")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.db"
	}
	return filepath.Join(home, ".config", "mm-archive", "session.db")
}

// loadConfig unmarshals the merged viper settings.
func loadConfig(v *viper.Viper) (types.ClientConfig, error) {
	var cfg types.ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = true

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// app bundles what the session commands share.
type app struct {
	cfg        types.ClientConfig
	client     *api.Client
	store      session.Store
	controller *query.Controller
	render     *render.Renderer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := session.Open(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	r, err := render.New(cmd.OutOrStdout(), render.Options{Plain: !isTerminal(cmd)})
	if err != nil {
		store.Close()
		return nil, err
	}

	client := api.NewClient(cfg.API, api.WithLogger(logger))
	ctl := query.New(client, store,
		query.WithLogger(logger),
		query.WithProgress(progress.Config{
			Interval:   cfg.Progress.Interval,
			ClearDelay: cfg.Progress.ClearDelay,
		}),
	)

	return &app{cfg: cfg, client: client, store: store, controller: ctl, render: r}, nil
}

func (a *app) Close() error { return a.store.Close() }

// openHandoff resolves a handoff and either prints the link or launches
// the viewer.
func (a *app) openHandoff(h viewer.Handoff, printOnly bool) error {
	ref, err := viewer.Resolve(h)
	if err != nil {
		// Shown inline; an incomplete citation is not a command failure.
		logger.Debug("cannot open document", zap.String("id", h.ID), zap.Error(err))
		a.render.Document(h, "")
		return nil
	}
	link := ref.URL(a.cfg.Viewer.BaseURL)
	a.render.Document(h, link)
	if printOnly {
		return nil
	}
	logger.Debug("opening document", zap.String("url", link))
	return opener.Open(link)
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
