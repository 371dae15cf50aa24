package main

import (
	stderrors "errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/saascannon/saascannon-vango/internal/config"
	"github.com/saascannon/saascannon-vango/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┌─┐┌─┐┌─┐┌─┐┌─┐┌┐┌┌┐┌┌─┐┌┐┌
  ╚═╗├─┤├─┤└─┐│  ├─┤│││││││ ││││
  ╚═╝┴ ┴┴ ┴└─┘└─┘┴ ┴┘└┘┘└┘└─┘┘└┘
`

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	noColor    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "saascannon",
		Short: "Serve a live app signed in with Saascannon",
		Long: `saascannon serves server-rendered pages that stay live over a
WebSocket, with Saascannon handling sign-in, sign-up and accounts.

Configuration is read from saascannon.yaml or saascannon.json in the
working directory or a parent, a .env file next to it, and
SAASCANNON_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor || os.Getenv("NO_COLOR") != "" {
				errors.DisableColors()
				disableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: saascannon.yaml or saascannon.json)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		serveCmd(opts),
		configCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig reads the --config file, or searches the working directory
// and its parents. Without any config file the environment alone is used.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFile(opts.configPath)
	}

	cfg, err := config.LoadFromWorkingDir()
	var e *errors.Error
	if stderrors.As(err, &e) && e.Code == "S141" {
		return config.FromEnv(), nil
	}
	return cfg, err
}
