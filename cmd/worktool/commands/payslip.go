package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"worktool/lib/timezone"
	"worktool/lib/util/serviceutil"
	"worktool/services/credentials"
	"worktool/services/payslip"
)

var (
	payslipYear     *int
	payslipFullScan *bool
)

func init() {
	payslipYear = payslipCmd.Flags().Int("year", 0, "The calendar year to fetch. Defaults to the current year.")
	payslipFullScan = payslipCmd.Flags().Bool("full-scan", false, "Scan every year the portal keeps instead of one.")
	rootCmd.AddCommand(payslipCmd)
}

var payslipCmd = &cobra.Command{
	Use:   "payslip [--year <yyyy>] [--full-scan]",
	Short: "Fetches missing salary and bonus statements into the history CSVs.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, shutdown := setup(ctx)
		defer shutdown()

		store := credentialStore(cfg)
		loginID, err := store.Get(credentials.KeyPayslipID)
		if err != nil {
			serviceutil.Fatal("failed to read login id", err)
		}
		password, err := store.Get(credentials.KeyPayslipPW)
		if err != nil {
			serviceutil.Fatal("failed to read password", err)
		}
		if loginID == "" || password == "" {
			serviceutil.Fatal("no credentials stored", fmt.Errorf("run `worktool login payslip` first"))
		}

		year := *payslipYear
		if year == 0 {
			year = timezone.Now().Year()
		}

		svc := payslip.NewService(cfg.Payslip)
		ok, result := svc.Run(ctx, payslip.Credentials{LoginID: loginID, Password: password}, year, *payslipFullScan)
		if !ok {
			serviceutil.Fatal("payslip run failed", fmt.Errorf("%s", result.Message))
		}

		slog.Info("payslip run finished",
			"message", result.Message,
			"new_salary", result.NewSalaryRows,
			"new_bonus", result.NewBonusRows)
		for _, s := range result.Summaries {
			fmt.Printf("%d年: 総支給 %.0f / 差引 %.0f / 賞与 %.0f / 年度内時間外 %.2fH / 有給残 %s\n",
				s.Year, s.GrossTotal, s.NetTotal, s.BonusTotal, s.FiscalOvertime, s.PaidLeaveRemaining)
		}
	},
}
