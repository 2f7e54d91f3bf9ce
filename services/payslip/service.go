// Package payslip drives the payroll portal end to end: plan the
// months that are missing from the local history, pull their
// statements, merge and persist, then aggregate a yearly summary.
package payslip

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"worktool/lib/jpcal"
	"worktool/lib/scrapers/meisai"
	"worktool/lib/timezone"
)

var tracer = otel.Tracer("services/payslip")

type Config struct {
	BaseURL     string `json:"baseUrl"`
	CompanyCode string `json:"companyCode"`
	DataDir     string `json:"dataDir"`
	LogDir      string `json:"logDir"`
}

type Credentials struct {
	LoginID  string
	Password string
}

// Service owns one run against the payroll portal. NewNavigator is a
// factory so a run can be pointed at a stub or a test double.
type Service struct {
	Config       Config
	NewNavigator func() (Navigator, error)
}

func NewService(config Config) Service {
	return Service{
		Config: config,
		NewNavigator: func() (Navigator, error) {
			return meisai.NewClient(meisai.Options{
				BaseURL:     config.BaseURL,
				CompanyCode: config.CompanyCode,
				LogDir:      config.LogDir,
			})
		},
	}
}

// RunResult reports what one run accomplished, per year visited.
type RunResult struct {
	Message       string
	NewSalaryRows int
	NewBonusRows  int
	Summaries     []Summary
}

// Run executes the differential fetch. The navigator is acquired once,
// reused across every year and released on the way out. Failures past
// login degrade the run instead of aborting it; whatever was merged
// before the failure is already saved.
func (s Service) Run(ctx context.Context, creds Credentials, year int, fullScan bool) (bool, RunResult) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	result := RunResult{}

	nav, err := s.NewNavigator()
	if err != nil {
		result.Message = "セッションの初期化に失敗しました"
		slog.Error("failed to construct portal session", "err", err)
		return false, result
	}
	defer nav.Close()

	ok, msg := nav.Login(ctx, creds.LoginID, creds.Password)
	if !ok {
		result.Message = msg
		return false, result
	}
	defer nav.Logout(ctx)

	today := timezone.Now()
	salaryStore := NewSalaryStore(s.Config.DataDir)
	bonusStore := NewBonusStore(s.Config.DataDir)

	salaryRows, haveSalary := salaryStore.Load()
	bonusRows, haveBonus := bonusStore.Load()

	for _, y := range PlanYears(today, year, fullScan) {
		targets := PlanSalaryTargets(today, y, haveSalary, false)
		if len(targets) == 0 {
			slog.Info("salary history already complete", "year", y)
		} else {
			fetched := nav.FetchSalary(ctx, targets)
			var incoming []map[string]string
			for _, rec := range fetched {
				incoming = append(incoming, recordRow(salaryStore.KeyField, rec))
				haveSalary[jpcal.PeriodPrefix(rec.Period)] = struct{}{}
			}
			salaryRows = salaryStore.Merge(salaryRows, incoming)
			result.NewSalaryRows += len(incoming)
		}

		fetched := nav.FetchBonus(ctx, jpcal.FiscalLabel(y), haveBonus)
		var incoming []map[string]string
		for _, rec := range fetched {
			incoming = append(incoming, recordRow(bonusStore.KeyField, rec))
			haveBonus[rec.Period] = struct{}{}
		}
		bonusRows = bonusStore.Merge(bonusRows, incoming)
		result.NewBonusRows += len(incoming)
	}

	if err := salaryStore.Save(salaryRows); err != nil {
		slog.Error("failed to save salary history", "err", err)
	}
	if err := bonusStore.Save(bonusRows); err != nil {
		slog.Error("failed to save bonus history", "err", err)
	}

	for _, y := range PlanYears(today, year, fullScan) {
		result.Summaries = append(result.Summaries, Summarize(y, salaryRows, bonusRows))
	}

	if result.NewSalaryRows == 0 && result.NewBonusRows == 0 {
		result.Message = "新しい明細はありませんでした"
	} else {
		result.Message = "明細の取得が完了しました"
	}
	return true, result
}
