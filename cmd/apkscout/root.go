package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/apkscout/config"
)

type ctxKey int

const configKey ctxKey = 0

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext returns the configuration loaded by the root command,
// or the environment defaults when none was attached.
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.Load()
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "apkscout",
		Short:         "apkscout resolves app names to direct APK download links",
		Long:          `apkscout searches APKMirror for each application name, follows the listing to the final download page, and records a primary and a fallback direct link per application.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg *config.Config
				err error
			)
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
			} else {
				cfg = config.Load()
				err = cfg.Validate()
			}
			if err != nil {
				return err
			}

			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if verbose {
				cfg.Log.Level = "debug"
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			slog.SetDefault(slog.New(newLogHandler(os.Stderr, cfg.Log)))

			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overlays APKSCOUT_* environment)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json, text, pretty, auto")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newResolveCmd())
	root.AddCommand(newServeCmd())

	return root
}
