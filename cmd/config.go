package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"policymetrics/internal/common"
	"policymetrics/internal/config"
	"policymetrics/internal/ui"
	apperrors "policymetrics/pkg/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the policymetrics configuration",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file populated with the defaults",
		Example: `  policymetrics config init
  policymetrics config init --path ./policymetrics.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.GetConfigFile()
			}
			clean, err := common.CleanPath(path)
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid config path").
					WithContext("path", path)
			}
			if config.Exists(clean) && !force {
				return apperrors.New(apperrors.ErrCodeConfigWrite, "config file already exists").
					WithContext("path", clean).
					WithSuggestions("Use --force to overwrite it")
			}
			if err := config.Save(clean, config.Default()); err != nil {
				return err
			}
			if !a.quiet {
				ui.ShowSuccess(cmd.OutOrStdout(), fmt.Sprintf("Wrote default configuration to %s", clean))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "where to write the config file (default $HOME/.policymetrics/config.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file and
POLICYMETRICS_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode configuration")
			}
			out := cmd.OutOrStdout()
			if !a.quiet {
				source := "defaults only"
				if a.configUsed != "" {
					source = a.configUsed
				}
				fmt.Fprintf(out, "# source: %s\n", source)
			}
			if _, err := out.Write(data); err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "failed to write configuration")
			}
			return nil
		},
	}
}
