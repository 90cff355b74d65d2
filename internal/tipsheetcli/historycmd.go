package tipsheetcli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/phillip-england/tipsheet/internal/history"
	"github.com/phillip-england/tipsheet/internal/reportgen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errHistoryDisabled = errors.New("run history is disabled (TIPSHEET_HISTORY_DB=off)")

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and replay recorded runs",
	}
	cmd.AddCommand(newHistoryListCmd(a), newHistoryShowCmd(a), newHistoryRerunCmd(a))
	return cmd
}

func (a *app) requireHistory() (*history.Store, error) {
	store, err := a.openHistory(false)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errHistoryDisabled
	}
	return store, nil
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run's totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
}

func newHistoryRerunCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "rerun <id>",
		Short: "Regenerate a run's workbook from its stored inputs with the current policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			hours, tips, err := store.Inputs(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = rerunOutput(run)
			}

			gen, err := a.newGenerator(store, "rerun")
			if err != nil {
				return err
			}
			var tipsFile *reportgen.File
			if tips != nil {
				tipsFile = &reportgen.File{Name: tips.Name, Data: tips.Data}
			}
			a.logger.Info("replaying run", zap.String("run_id", run.ID), zap.String("output", outPath))
			summary, err := gen.GenerateFiles(cmd.Context(), reportgen.File{Name: hours.Name, Data: hours.Data}, tipsFile, outPath)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output workbook (default <run id>_<original name>)")
	return cmd
}

// rerunOutput names the replayed workbook after the original, prefixed with
// the short run id so the original is never overwritten.
func rerunOutput(run history.Run) string {
	name := filepath.Base(run.OutputName)
	if name == "." || name == string(os.PathSeparator) || name == "" {
		name = defaultOutput
	}
	return shortID(run.ID) + "_" + name
}
