package tipsheetcli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/phillip-england/tipsheet/internal/history"
	"github.com/phillip-england/tipsheet/internal/reportgen"
	"github.com/shopspring/decimal"
)

func printSummary(w io.Writer, s reportgen.Summary) {
	fmt.Fprintf(w, "Report written to %s\n", s.OutputPath)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if s.RunID != "" {
		fmt.Fprintf(tw, "Run:\t%s\n", s.RunID)
	}
	fmt.Fprintf(tw, "Employees:\t%d\n", s.Employees)
	fmt.Fprintf(tw, "Total hours:\t%.2f\n", s.TotalHours)
	if len(s.Salaried) > 0 {
		fmt.Fprintf(tw, "Salaried:\t%s\n", strings.Join(s.Salaried, ", "))
	}
	if s.TipsIncluded {
		fmt.Fprintf(tw, "Lunch tips:\t%s\n", dollars(s.LunchTips))
		fmt.Fprintf(tw, "Dinner general tips:\t%s\n", dollars(s.DinnerGeneralTips))
		fmt.Fprintf(tw, "Dinner server tips:\t%s\n", dollars(s.DinnerServerTips))
		fmt.Fprintf(tw, "Grand total:\t%s\n", dollars(s.GrandTotal))
		fmt.Fprintf(tw, "Individual total:\t%s\n", dollars(s.IndividualTotal))
	} else {
		fmt.Fprintf(tw, "Tips:\tnot included\n")
	}
	if len(s.UnmatchedServerTips) > 0 {
		fmt.Fprintf(tw, "Unmatched server tips:\t%s\n", strings.Join(s.UnmatchedServerTips, ", "))
	}
	if len(s.UnreportedRoles) > 0 {
		fmt.Fprintf(tw, "Roles left out:\t%s\n", strings.Join(s.UnreportedRoles, ", "))
	}
	if s.TipsWarning != "" {
		fmt.Fprintf(tw, "Warning:\t%s\n", s.TipsWarning)
	}
	_ = tw.Flush()
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tHOURS FILE\tEMPLOYEES\tHOURS\tTIPS")
	for _, run := range runs {
		tipsCol := "-"
		if run.TipsIncluded {
			tipsCol = dollars(run.GrandTotal)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2f\t%s\n",
			shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Source,
			run.HoursName,
			run.Employees,
			run.TotalHours,
			tipsCol)
	}
	_ = tw.Flush()
}

func printRun(w io.Writer, run history.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", run.ID)
	fmt.Fprintf(tw, "Created:\t%s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "Source:\t%s\n", run.Source)
	fmt.Fprintf(tw, "Hours file:\t%s\n", run.HoursName)
	if run.TipsName != "" {
		fmt.Fprintf(tw, "Tips file:\t%s\n", run.TipsName)
	}
	fmt.Fprintf(tw, "Output:\t%s\n", run.OutputName)
	fmt.Fprintf(tw, "Employees:\t%d\n", run.Employees)
	fmt.Fprintf(tw, "Total hours:\t%.2f\n", run.TotalHours)
	if run.TipsIncluded {
		fmt.Fprintf(tw, "Lunch tips:\t%s\n", dollars(run.LunchTips))
		fmt.Fprintf(tw, "Dinner general tips:\t%s\n", dollars(run.DinnerGeneralTips))
		fmt.Fprintf(tw, "Dinner server tips:\t%s\n", dollars(run.DinnerServerTips))
		fmt.Fprintf(tw, "Grand total:\t%s\n", dollars(run.GrandTotal))
	} else {
		fmt.Fprintf(tw, "Tips:\tnot included\n")
	}
	_ = tw.Flush()
}

func dollars(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
