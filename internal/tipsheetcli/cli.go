// Package tipsheetcli is the tipsheet command tree.
package tipsheetcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/phillip-england/tipsheet/internal/config"
	"github.com/phillip-england/tipsheet/internal/envutil"
	"github.com/phillip-england/tipsheet/internal/history"
	"github.com/phillip-england/tipsheet/internal/logging"
	"github.com/phillip-england/tipsheet/internal/reportgen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ErrUsage = errors.New("usage")

// app carries state shared by the commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	envFile    string
	policyPath string
	verbose    bool

	settings config.Settings
	logger   *zap.Logger
}

func Execute(args []string) error {
	return ExecuteContext(context.Background(), args)
}

func ExecuteContext(ctx context.Context, args []string) error {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	return a.execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tipsheet",
		Short:         "Build payroll and tip-pool workbooks from time punch and tip exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
			}
			return cmd.Help()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "path to .env file")
	flags.StringVar(&a.policyPath, "config", "", "policy file (default $"+config.EnvPolicy+" or the XDG config dir)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGenerateCmd(a),
		newServeCmd(a),
		newSetupCmd(a),
		newConfigCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// PrintUsage writes the command overview.
func PrintUsage(w io.Writer) {
	root := newRootCmd(&app{stdout: w, stderr: w})
	root.SetOut(w)
	_ = root.Usage()
}

func (a *app) init() error {
	if err := envutil.LoadDotEnv(a.envFile); err != nil {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	settings, err := config.SettingsFromEnv()
	if err != nil {
		return err
	}
	a.settings = settings
	if a.policyPath == "" {
		a.policyPath = settings.PolicyPath
	}
	if a.logger == nil {
		logger, err := logging.New(settings.LogLevel, a.verbose)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		a.logger = logger
	}
	return nil
}

func (a *app) loadPolicy() (config.Policy, error) {
	policy, err := config.Load(a.policyPath)
	if err != nil {
		return config.Policy{}, err
	}
	a.logger.Debug("policy loaded", zap.String("path", a.policyPath))
	return policy, nil
}

// openHistory returns nil when history is disabled.
func (a *app) openHistory(disabled bool) (*history.Store, error) {
	if disabled || a.settings.HistoryPath == "" {
		return nil, nil
	}
	store, err := history.Open(a.settings.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func (a *app) newGenerator(store *history.Store, source string) (*reportgen.Generator, error) {
	policy, err := a.loadPolicy()
	if err != nil {
		return nil, err
	}
	gen := &reportgen.Generator{Policy: policy, Logger: a.logger, Source: source}
	if store != nil {
		gen.History = store
	}
	return gen, nil
}
