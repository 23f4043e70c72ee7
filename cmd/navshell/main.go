package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navshell/internal/config"
	"github.com/vango-dev/navshell/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐┌┌─┐┬  ┬┌─┐┬ ┬┌─┐┬  ┬
  │││├─┤└┐┌┘└─┐├─┤├┤ │  │
  ┘└┘┴ ┴ └┘ └─┘┴ ┴└─┘┴─┘┴─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	config      string
	logLevel    string
	logFormat   string
	s3Endpoint  string
	s3PathStyle bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "navshell",
		Short: "Server-resolved navigation for single-page applications",
		Long: `navshell resolves browser locations against an ordered route table.

It serves a single-page shell whose navigation runs on the server:
the browser reports link clicks and history traversal over a WebSocket,
and receives the resolved route in return.

The route table is read from navshell.toml or navshell.json in the
current directory or a parent, or from --config, which also accepts
s3://bucket/key locations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Config file, directory or s3:// URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&flags.s3Endpoint, "s3-endpoint", "", "S3 endpoint override for s3:// configs")
	pf.BoolVar(&flags.s3PathStyle, "s3-path-style", false, "Use path-style S3 addressing")

	rootCmd.AddCommand(
		routesCmd(flags),
		resolveCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration selected by the global flags and
// applies the log overrides.
func (f *globalFlags) loadConfig(ctx context.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	switch {
	case f.config == "":
		cfg, err = config.LoadFromWorkingDir()
	case config.IsS3URL(f.config):
		client := config.NewS3Client(config.S3Options{
			Endpoint:  f.s3Endpoint,
			PathStyle: f.s3PathStyle,
		})
		cfg, err = config.LoadS3(ctx, client, f.config)
	default:
		fi, statErr := os.Stat(f.config)
		if statErr == nil && fi.IsDir() {
			cfg, err = config.Load(f.config)
		} else {
			cfg, err = config.LoadFile(f.config)
		}
	}
	if err != nil {
		return nil, err
	}

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger builds the process logger and installs it as the slog default.
func logger(cfg *config.Config, w io.Writer) *slog.Logger {
	l := cfg.Log.Logger(w)
	slog.SetDefault(l)
	return l
}

// printBanner prints the navshell ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
