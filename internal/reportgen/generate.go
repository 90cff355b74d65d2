// Package reportgen runs one report generation from input files to the
// saved workbook.
package reportgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phillip-england/tipsheet/internal/config"
	"github.com/phillip-england/tipsheet/internal/history"
	"github.com/phillip-england/tipsheet/internal/importer"
	"github.com/phillip-england/tipsheet/internal/logging"
	"github.com/phillip-england/tipsheet/internal/payroll"
	"github.com/phillip-england/tipsheet/internal/report"
	"github.com/phillip-england/tipsheet/internal/tips"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Recorder stores finished runs. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, run history.Run, hours history.Input, tips *history.Input) (history.Run, error)
}

type Generator struct {
	Policy config.Policy
	Logger *zap.Logger
	// History is optional; a failed record is logged, not returned.
	History Recorder
	// Source tags recorded runs, e.g. "cli" or "web".
	Source string
}

// Inputs names the files for one run. TipsPath is optional.
type Inputs struct {
	HoursPath  string
	TipsPath   string
	OutputPath string
}

// File is an input already held in memory. Name carries the extension used
// to pick the reader.
type File struct {
	Name string
	Data []byte
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	OutputPath string

	Employees  int
	TotalHours float64
	Salaried   []string

	TipsIncluded bool
	// TipsWarning explains why a supplied tip summary was left out.
	TipsWarning string

	LunchTips         decimal.Decimal
	DinnerGeneralTips decimal.Decimal
	DinnerServerTips  decimal.Decimal
	GrandTotal        decimal.Decimal
	IndividualTotal   decimal.Decimal

	UnmatchedServerTips []string
	UnreportedRoles     []string
}

// Generate reads the input files and writes the report to in.OutputPath.
// A missing or unreadable tip summary leaves the tip sections out; any
// problem with the hours export fails the run and leaves no output file.
func (g *Generator) Generate(ctx context.Context, in Inputs) (Summary, error) {
	if in.HoursPath == "" {
		return Summary{}, errors.New("hours file is required")
	}
	if in.OutputPath == "" {
		return Summary{}, errors.New("output path is required")
	}
	data, err := os.ReadFile(in.HoursPath)
	if err != nil {
		return Summary{}, fmt.Errorf("read hours file: %w", err)
	}
	hours := File{Name: filepath.Base(in.HoursPath), Data: data}

	var tipsFile *File
	var tipsWarning string
	if in.TipsPath != "" {
		data, err := os.ReadFile(in.TipsPath)
		if err != nil {
			tipsWarning = fmt.Sprintf("read tips file: %v", err)
		} else {
			tipsFile = &File{Name: filepath.Base(in.TipsPath), Data: data}
		}
	}

	summary, err := g.GenerateFiles(ctx, hours, tipsFile, in.OutputPath)
	if err != nil {
		return Summary{}, err
	}
	if tipsWarning != "" {
		g.logger().Warn("tip summary skipped", zap.String("reason", tipsWarning))
		summary.TipsWarning = tipsWarning
	}
	return summary, nil
}

// GenerateFiles runs a generation over in-memory inputs.
func (g *Generator) GenerateFiles(ctx context.Context, hoursFile File, tipsFile *File, outputPath string) (Summary, error) {
	logger := g.logger()
	rules := g.Policy.Rules
	if rules.RoleAliases == nil && rules.SplitRoles == nil {
		rules = payroll.DefaultRules()
	}
	allocation := g.Policy.Allocation
	if allocation.Lunch == nil && allocation.DinnerGeneral == nil && allocation.DinnerServers == nil {
		allocation = tips.DefaultAllocation()
	}

	rows, err := importer.ReadRows(bytes.NewReader(hoursFile.Data), hoursFile.Name)
	if err != nil {
		return Summary{}, fmt.Errorf("read hours file: %w", err)
	}
	shifts, err := importer.ParseHours(rows)
	if err != nil {
		return Summary{}, fmt.Errorf("parse hours file: %w", err)
	}
	table := payroll.Aggregate(shifts, rules)

	summary := Summary{
		OutputPath: outputPath,
		Employees:  table.Len(),
	}
	columns := payroll.ReportBuckets()
	for _, employee := range table.Employees() {
		summary.TotalHours += table.Subtotal(employee, columns)
	}
	for _, emp := range rules.Salaried {
		summary.Salaried = append(summary.Salaried, emp.Name)
		logger.Info("added salaried employee",
			zap.String("employee", emp.Name),
			zap.String("role", emp.Role),
			zap.Float64("hours", emp.LunchHours+emp.DinnerHours))
	}
	for _, b := range payroll.UnreportedBuckets(table) {
		summary.UnreportedRoles = append(summary.UnreportedRoles, string(b))
	}
	if len(summary.UnreportedRoles) > 0 {
		logger.Warn("hours recorded under roles without a report column", zap.Strings("roles", summary.UnreportedRoles))
	}

	model := report.Model{Hours: table}
	if tipsFile != nil {
		tipReport, err := allocateTips(*tipsFile, table, columns, allocation)
		if err != nil {
			summary.TipsWarning = err.Error()
			logger.Warn("tip summary skipped", zap.String("file", tipsFile.Name), zap.Error(err))
		} else {
			model.Tips = &tipReport
			summary.TipsIncluded = true
			summary.LunchTips = tipReport.PoolTotals[tips.PoolLunch]
			summary.DinnerGeneralTips = tipReport.PoolTotals[tips.PoolDinnerGeneral]
			summary.DinnerServerTips = tipReport.PoolTotals[tips.PoolDinnerServers]
			summary.GrandTotal = tipReport.GrandTotal
			summary.IndividualTotal = tipReport.IndividualTotal
			summary.UnmatchedServerTips = tipReport.UnmatchedServerTips
			logTips(logger, allocation, tipReport)
		}
	}

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	if _, err := report.Save(model, outputPath); err != nil {
		return Summary{}, err
	}
	logger.Info("report written",
		zap.String("output", outputPath),
		zap.Int("employees", summary.Employees),
		zap.Float64("total_hours", summary.TotalHours),
		zap.Bool("tips", summary.TipsIncluded))

	summary.RunID = g.record(ctx, summary, hoursFile, tipsFile)
	return summary, nil
}

func allocateTips(f File, table *payroll.HoursTable, columns []payroll.Bucket, allocation tips.AllocationTable) (tips.Report, error) {
	rows, err := importer.ReadRows(bytes.NewReader(f.Data), f.Name)
	if err != nil {
		return tips.Report{}, fmt.Errorf("read tips file: %w", err)
	}
	totals, err := tips.ParsePoolTotals(rows)
	if err != nil {
		return tips.Report{}, fmt.Errorf("parse tips file: %w", err)
	}
	direct := tips.ParseServerTips(rows)
	return tips.Allocate(table, columns, allocation, totals, direct), nil
}

func logTips(logger *zap.Logger, allocation tips.AllocationTable, r tips.Report) {
	for _, pool := range tips.Pools {
		if allocation.Unallocated(pool).IsNegative() {
			logger.Warn("pool fractions add up to more than one", zap.String("pool", string(pool)))
		}
	}
	logger.Info("tips allocated",
		zap.String("lunch", r.PoolTotals[tips.PoolLunch].StringFixed(2)),
		zap.String("dinner_general", r.PoolTotals[tips.PoolDinnerGeneral].StringFixed(2)),
		zap.String("dinner_servers", r.PoolTotals[tips.PoolDinnerServers].StringFixed(2)),
		zap.String("grand_total", r.GrandTotal.StringFixed(2)))
	if len(r.UnmatchedServerTips) > 0 {
		logger.Warn("direct server tips matched no employee", zap.Strings("names", r.UnmatchedServerTips))
	}
	if len(r.DuplicateServerTips) > 0 {
		logger.Warn("duplicate direct server tips ignored", zap.Strings("names", r.DuplicateServerTips))
	}
}

func (g *Generator) record(ctx context.Context, s Summary, hoursFile File, tipsFile *File) string {
	if g.History == nil {
		return ""
	}
	run := history.Run{
		Source:            g.Source,
		HoursName:         hoursFile.Name,
		OutputName:        filepath.Base(s.OutputPath),
		Employees:         s.Employees,
		TotalHours:        s.TotalHours,
		TipsIncluded:      s.TipsIncluded,
		LunchTips:         s.LunchTips,
		DinnerGeneralTips: s.DinnerGeneralTips,
		DinnerServerTips:  s.DinnerServerTips,
		GrandTotal:        s.GrandTotal,
	}
	var tipsInput *history.Input
	if tipsFile != nil {
		run.TipsName = tipsFile.Name
		tipsInput = &history.Input{Name: tipsFile.Name, Data: tipsFile.Data}
	}
	recorded, err := g.History.Record(ctx, run, history.Input{Name: hoursFile.Name, Data: hoursFile.Data}, tipsInput)
	if err != nil {
		g.logger().Warn("failed to record run history", zap.Error(err))
		return ""
	}
	return recorded.ID
}

func (g *Generator) logger() *zap.Logger {
	return logging.OrNop(g.Logger)
}
