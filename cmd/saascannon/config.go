package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saascannon/saascannon-vango/internal/config"
	"github.com/saascannon/saascannon-vango/internal/errors"
	"github.com/saascannon/saascannon-vango/pkg/spa"
)

func configCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration",
	}
	cmd.AddCommand(
		configCheckCmd(root),
		configInitCmd(),
		configShowCmd(root),
	)
	return cmd
}

func configCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration",
		Long: `Validate the configuration and build a client from it.

No request is sent to the tenant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigCheck(root, cmd.OutOrStdout())
		},
	}
}

func runConfigCheck(root *rootOptions, out io.Writer) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := spa.New(cfg.SpaOptions()); err != nil {
		return errors.FromAuth(err, "S002")
	}

	if cfg.Path() == "" {
		warn(out, "No config file found; using environment variables only")
	} else {
		success(out, "%s is valid", cfg.Path())
	}
	field(out, "Tenant", cfg.SpaOptions().BaseURL())
	field(out, "Client ID", cfg.Saascannon.ClientID)
	field(out, "Redirect URI", cfg.Saascannon.RedirectURI)
	if cfg.Saascannon.JWKSURL == "" {
		warn(out, "saascannon.jwksUrl is not set; access tokens are not signature-checked")
	}
	return nil
}

func configInitCmd() *cobra.Command {
	var (
		dir      string
		domain   string
		clientID string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create saascannon.yaml",
		Example: `  saascannon config init --domain=acme.saascannon.app --client-id=spa_123
  saascannon config init --dir=deploy --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, "saascannon.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("S140").
					WithDetail(path + " already exists").
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			cfg.Saascannon.Domain = domain
			cfg.Saascannon.ClientID = clientID
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "Created %s", path)
			if domain == "" || clientID == "" {
				info(out, "Fill in saascannon.domain and saascannon.clientId, then run 'saascannon config check'")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write to")
	cmd.Flags().StringVar(&domain, "domain", "", "Tenant domain, e.g. acme.saascannon.app")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Client ID of the application")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func configShowCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults, .env and environment overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return errors.New("S122").WithDetail(fmt.Sprintf("Unknown output format %q", format)).
					WithSuggestion("Use --format=yaml or --format=json")
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")

	return cmd
}
