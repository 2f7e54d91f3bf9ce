package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"worktool/lib/util/serviceutil"
	"worktool/services/schedule"
)

var (
	holidayAdd    *string
	holidayRemove *string
)

func init() {
	holidayAdd = scheduleHolidaysCmd.Flags().String("add", "", "A yyyy/mm/dd date to add as a company holiday.")
	holidayRemove = scheduleHolidaysCmd.Flags().String("remove", "", "A yyyy/mm/dd date to remove.")
	scheduleCmd.AddCommand(scheduleHolidaysCmd)
}

func parseHolidayDate(v string) (string, error) {
	t, err := time.Parse("2006/01/02", v)
	if err != nil {
		return "", fmt.Errorf("want yyyy/mm/dd, got %q", v)
	}
	return t.Format("2006/01/02"), nil
}

var scheduleHolidaysCmd = &cobra.Command{
	Use:   "holidays [--add <yyyy/mm/dd>] [--remove <yyyy/mm/dd>]",
	Short: "Lists or edits the company-specific holidays.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, shutdown := setup(cmd.Context())
		defer shutdown()

		set := schedule.LoadSpecialHolidays(cfg.Schedule.DataDir)
		changed := false

		if *holidayAdd != "" {
			d, err := parseHolidayDate(*holidayAdd)
			if err != nil {
				serviceutil.Fatal("invalid date", err)
			}
			set[d] = struct{}{}
			changed = true
		}
		if *holidayRemove != "" {
			d, err := parseHolidayDate(*holidayRemove)
			if err != nil {
				serviceutil.Fatal("invalid date", err)
			}
			delete(set, d)
			changed = true
		}

		if changed {
			if err := schedule.SaveSpecialHolidays(cfg.Schedule.DataDir, set); err != nil {
				serviceutil.Fatal("failed to save holidays", err)
			}
		}

		dates := make([]string, 0, len(set))
		for d := range set {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		for _, d := range dates {
			fmt.Println(d)
		}
	},
}
