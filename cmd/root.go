package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"policymetrics/internal/config"
	"policymetrics/internal/observability"
	"policymetrics/internal/ui"
	apperrors "policymetrics/pkg/errors"
	"policymetrics/pkg/models"
)

// app holds the state shared by every command of one invocation
type app struct {
	v          *viper.Viper
	cfgFile    string
	configUsed string
	verbose    bool
	quiet      bool
	noColor    bool
	logLevel   string

	cfg      *models.Config
	logger   *observability.Logger
	bindings map[*cobra.Command][]flagBinding
}

// flagBinding maps a command flag onto a config key
type flagBinding struct {
	key  string
	flag string
}

// bindFlag makes flag override key when cmd is the command being run
func (a *app) bindFlag(cmd *cobra.Command, key, flag string) {
	a.bindings[cmd] = append(a.bindings[cmd], flagBinding{key: key, flag: flag})
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{v: config.NewViper(), bindings: map[*cobra.Command][]flagBinding{}}

	rootCmd := &cobra.Command{
		Use:   "policymetrics",
		Short: "Monthly sales and commission metrics for insurance policies",
		Long: `policymetrics reads a JSON export of insurance policies, repairs misnamed
columns, normalizes dates and reports monthly sales, cancellations, starts,
premiums, IPT and SERL commission as tables, charts and report files.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(cmd, err)
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./policymetrics.yaml or $HOME/.policymetrics/config.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output and debug logging")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only print results and errors")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error or off")

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newCleanCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads the configuration and builds the logger before any command runs
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.noColor {
		ui.SetColor(false)
		color.NoColor = true
	}

	for _, b := range a.bindings[cmd] {
		if err := a.v.BindPFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to bind flag").
				WithContext("flag", b.flag)
		}
	}

	used, err := config.ReadFile(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.configUsed = used

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Logging, a.logLevel, a.verbose)
	observability.SetDefaultLogger(a.logger)
	if used != "" {
		a.logger.Debugf("using config file %s", used)
	}
	return nil
}

func newLogger(out io.Writer, cfg models.Logging, override string, verbose bool) *observability.Logger {
	level := cfg.Level
	if override != "" {
		level = override
	}
	if verbose && override == "" {
		level = "debug"
	}
	return observability.NewLogger(observability.LoggerConfig{
		Level:   observability.LogLevelFromString(level),
		Output:  out,
		Service: "policymetrics",
		Version: Version,
		Encoder: observability.EncoderFromString(cfg.Format),
	})
}

// input returns the dataset path from the first argument or the config
func (a *app) input(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	return a.cfg.Input
}

// usageError marks errors cobra returns for bad flags, arguments or
// commands as invalid input. Application errors pass through.
func usageError(cmd *cobra.Command, err error) error {
	var appErr *apperrors.AppError
	if err == nil || errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, err.Error()).
		WithSuggestions(fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
}

func Execute() {
	rootCmd := NewRootCmd()
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		if cmd == nil {
			cmd = rootCmd
		}
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		apperrors.NewErrorHandler(os.Stderr, verbose).Handle(usageError(cmd, err))
		os.Exit(1)
	}
}
