package tipsheetcli

import (
	"fmt"

	"github.com/phillip-england/tipsheet/internal/reportgen"
	"github.com/spf13/cobra"
)

const defaultOutput = "payroll_report.xlsx"

func newGenerateCmd(a *app) *cobra.Command {
	var (
		hoursPath string
		tipsPath  string
		outPath   string
		noHistory bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the payroll workbook for an hours export and optional tip summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hoursPath == "" {
				return fmt.Errorf("%w: --hours is required", ErrUsage)
			}
			store, err := a.openHistory(noHistory)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			gen, err := a.newGenerator(store, "cli")
			if err != nil {
				return err
			}
			summary, err := gen.Generate(cmd.Context(), reportgen.Inputs{
				HoursPath:  hoursPath,
				TipsPath:   tipsPath,
				OutputPath: outPath,
			})
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&hoursPath, "hours", "", "time punch export (.csv, .xls, .xlsx)")
	flags.StringVar(&tipsPath, "tips", "", "tip summary export (optional)")
	flags.StringVarP(&outPath, "out", "o", defaultOutput, "output workbook")
	flags.BoolVar(&noHistory, "no-history", false, "do not record this run")
	return cmd
}
