package kinmu

import (
	"fmt"
	"strings"
)

// ValidateRows checks every row's time inputs before anything hits the
// network. All violations are collected so the caller can present them
// at once instead of one at a time.
func ValidateRows(rows []Row) []string {
	var errs []string

	for _, row := range rows {
		label := row.DateLabel()

		sh := strings.TrimSpace(row.StartHour)
		sm := strings.TrimSpace(row.StartMinute)
		eh := strings.TrimSpace(row.EndHour)
		em := strings.TrimSpace(row.EndMinute)
		rh := strings.TrimSpace(row.RestHour)
		rm := strings.TrimSpace(row.RestMinute)
		mh := strings.TrimSpace(row.MidnightHour)
		mm := strings.TrimSpace(row.MidnightMinute)

		if (sh != "") != (sm != "") {
			errs = append(errs, fmt.Sprintf("【%s】開始時間の時・分不揃い", label))
		}
		if (eh != "") != (em != "") {
			errs = append(errs, fmt.Sprintf("【%s】終了時間の時・分不揃い", label))
		}
		if (rh != "") != (rm != "") {
			errs = append(errs, fmt.Sprintf("【%s】休憩時間の時・分不揃い", label))
		}
		if (mh != "") != (mm != "") {
			errs = append(errs, fmt.Sprintf("【%s】深夜時間の時・分不揃い", label))
		}

		hasStart := sh != "" && sm != ""
		hasEnd := eh != "" && em != ""
		if hasStart != hasEnd {
			errs = append(errs, fmt.Sprintf("【%s】開始・終了時間はセットで入力してください", label))
		}

		if (rh != "" || mh != "") && !hasStart {
			errs = append(errs, fmt.Sprintf("【%s】休憩・深夜のみの入力はできません", label))
		}
	}

	return errs
}
