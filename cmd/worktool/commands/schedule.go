package commands

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"worktool/lib/scrapers/kinmu"
	"worktool/lib/timezone"
	"worktool/lib/util/serviceutil"
	"worktool/services/credentials"
	"worktool/services/schedule"
)

var (
	fillSubmit    *bool
	estimateMonth *string
)

func init() {
	fillSubmit = scheduleFillCmd.Flags().Bool("submit", false, "Post the filled rows back to the portal.")
	estimateMonth = scheduleEstimateCmd.Flags().String("month", "", "The month to estimate as yyyy/mm. Defaults to the current month.")

	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleFillCmd)
	scheduleCmd.AddCommand(scheduleEstimateCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Reads and fills the monthly work schedule.",
}

func scheduleCredentials(cfg Config) (schedule.Credentials, map[string]string) {
	store := credentialStore(cfg)
	env, err := store.Load()
	if err != nil {
		serviceutil.Fatal("failed to read settings", err)
	}
	loginID, err := store.Open(env[credentials.KeyScheduleID])
	if err != nil {
		serviceutil.Fatal("failed to read login id", err)
	}
	password, err := store.Open(env[credentials.KeySchedulePW])
	if err != nil {
		serviceutil.Fatal("failed to read password", err)
	}
	if loginID == "" || password == "" {
		serviceutil.Fatal("no credentials stored", fmt.Errorf("run `worktool login schedule` first"))
	}
	return schedule.Credentials{LoginID: loginID, Password: password}, env
}

func printRows(rows []kinmu.Row, holidayAsOff bool) {
	for _, row := range rows {
		mark := " "
		if row.Confirmed {
			mark = "*"
		}
		fmt.Printf("%s %-10s %s  %2s:%-2s - %2s:%-2s  休 %2s:%-2s  %-4s %s\n",
			mark, row.WorkDate, row.Youbi,
			row.StartHour, row.StartMinute, row.EndHour, row.EndMinute,
			row.RestHour, row.RestMinute,
			schedule.WorkTypeName(row, holidayAsOff), row.Comment)
	}
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the current month's schedule rows.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, shutdown := setup(ctx)
		defer shutdown()

		creds, _ := scheduleCredentials(cfg)
		svc := schedule.NewService(cfg.Schedule)
		ok, msg, rows := svc.Fetch(ctx, creds)
		if !ok {
			serviceutil.Fatal("failed to fetch schedule", fmt.Errorf("%s", msg))
		}
		printRows(rows, cfg.Schedule.HolidayAsOff)
	},
}

var scheduleFillCmd = &cobra.Command{
	Use:   "fill [--submit]",
	Short: "Bulk-fills empty past rows with the default times, optionally submitting.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, shutdown := setup(ctx)
		defer shutdown()

		creds, env := scheduleCredentials(cfg)
		svc := schedule.NewService(cfg.Schedule)

		ok, msg, rows, filled := svc.FetchAndFill(ctx, creds, fillDefaults(env))
		if !ok {
			serviceutil.Fatal("failed to fetch schedule", fmt.Errorf("%s", msg))
		}
		slog.Info("bulk fill finished", "filled", filled)
		printRows(rows, cfg.Schedule.HolidayAsOff)

		if !*fillSubmit {
			fmt.Println("(dry run: --submit で登録します)")
			return
		}
		if filled == 0 {
			fmt.Println("対象行がありませんでした")
			return
		}

		ok, msg, latest := svc.Submit(ctx, creds, rows)
		if !ok {
			serviceutil.Fatal("failed to submit schedule", fmt.Errorf("%s", msg))
		}
		fmt.Println(msg)
		printRows(latest, cfg.Schedule.HolidayAsOff)
	},
}

var scheduleEstimateCmd = &cobra.Command{
	Use:   "estimate [--month <yyyy/mm>]",
	Short: "Prints the expected workdays and hours for a month.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg, shutdown := setup(ctx)
		defer shutdown()

		today := timezone.Now()
		year, month := today.Year(), today.Month()
		if *estimateMonth != "" {
			var y, m int
			if _, err := fmt.Sscanf(*estimateMonth, "%d/%d", &y, &m); err != nil || m < 1 || m > 12 {
				serviceutil.Fatal("invalid month", fmt.Errorf("want yyyy/mm, got %q", *estimateMonth))
			}
			year, month = y, time.Month(m)
		}

		env, err := credentialStore(cfg).Load()
		if err != nil {
			serviceutil.Fatal("failed to read settings", err)
		}

		special := schedule.LoadSpecialHolidays(cfg.Schedule.DataDir)
		stdWork := envDefault(env, "DEF_STD_WORK", "0800")
		days := schedule.CountWorkdays(year, month, special, !cfg.Schedule.HolidayAsOff)
		hours := float64(days) * schedule.StdWorkHours(stdWork)

		fmt.Printf("%d年%d月: 所定 %s日 / 見込 %.2fH (1日 %.2fH)\n",
			year, int(month), strconv.Itoa(days), hours, schedule.StdWorkHours(stdWork))
	},
}
