// Package schedule wraps the work-schedule portal: pull the current
// month's rows, bulk-fill the empty past days with the configured
// defaults and office-meeting annotations, then post the edits back.
package schedule

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"worktool/lib/scrapers/kinmu"
	"worktool/lib/timezone"
)

var tracer = otel.Tracer("services/schedule")

type Config struct {
	LoginURL     string `json:"loginUrl"`
	Origin       string `json:"origin"`
	DataDir      string `json:"dataDir"`
	LogDir       string `json:"logDir"`
	KishakaiFile string `json:"kishakaiFile"`
	HolidayAsOff bool   `json:"holidayAsOff"`
}

type Credentials struct {
	LoginID  string
	Password string
}

// Navigator is the portal session the flows drive; *kinmu.Client is
// the real one.
type Navigator interface {
	Login(ctx context.Context, loginID, password string) (bool, string)
	GetCurrentSchedule(ctx context.Context) (bool, string, []kinmu.Row)
	UpdateSchedule(ctx context.Context, rows []kinmu.Row) (bool, string, []kinmu.Row)
	Close()
}

type StubNavigator struct{}

func (StubNavigator) Login(ctx context.Context, loginID, password string) (bool, string) {
	return false, "勤務表モジュールが利用できません"
}

func (StubNavigator) GetCurrentSchedule(ctx context.Context) (bool, string, []kinmu.Row) {
	return false, "勤務表モジュールが利用できません", nil
}

func (StubNavigator) UpdateSchedule(ctx context.Context, rows []kinmu.Row) (bool, string, []kinmu.Row) {
	return false, "勤務表モジュールが利用できません", nil
}

func (StubNavigator) Close() {}

type Service struct {
	Config       Config
	NewNavigator func() (Navigator, error)
}

func NewService(config Config) Service {
	return Service{
		Config: config,
		NewNavigator: func() (Navigator, error) {
			return kinmu.NewClient(kinmu.Options{
				LoginURL: config.LoginURL,
				Origin:   config.Origin,
				LogDir:   config.LogDir,
			})
		},
	}
}

// Fetch logs in and returns the current month's rows. Each call is a
// fresh session; the portal drops idle ones too aggressively to keep
// them around.
func (s Service) Fetch(ctx context.Context, creds Credentials) (bool, string, []kinmu.Row) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	nav, err := s.NewNavigator()
	if err != nil {
		slog.Error("failed to construct portal session", "err", err)
		return false, "セッションの初期化に失敗しました", nil
	}
	defer nav.Close()

	ok, msg := nav.Login(ctx, creds.LoginID, creds.Password)
	if !ok {
		return false, msg, nil
	}
	return nav.GetCurrentSchedule(ctx)
}

// Submit posts edited rows back to the portal and returns the re-read
// schedule when the portal accepts them.
func (s Service) Submit(ctx context.Context, creds Credentials, rows []kinmu.Row) (bool, string, []kinmu.Row) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()

	nav, err := s.NewNavigator()
	if err != nil {
		slog.Error("failed to construct portal session", "err", err)
		return false, "セッションの初期化に失敗しました", nil
	}
	defer nav.Close()

	ok, msg := nav.Login(ctx, creds.LoginID, creds.Password)
	if !ok {
		return false, msg, nil
	}
	return nav.UpdateSchedule(ctx, rows)
}

// FetchAndFill combines Fetch with one bulk-fill pass using the
// configured defaults and, when a schedule file is configured, the
// office-meeting dates. Returns the rows and how many were filled.
func (s Service) FetchAndFill(ctx context.Context, creds Credentials, defaults FillDefaults) (bool, string, []kinmu.Row, int) {
	ok, msg, rows := s.Fetch(ctx, creds)
	if !ok {
		return false, msg, nil, 0
	}

	opts := FillOptions{Defaults: defaults, HolidayAsOff: s.Config.HolidayAsOff}
	if s.Config.KishakaiFile != "" {
		dates, err := LoadKishakaiDates(s.Config.KishakaiFile)
		if err != nil {
			slog.Warn("failed to load kishakai schedule", "path", s.Config.KishakaiFile, "err", err)
		} else {
			opts.Kishakai = dates
		}
	}

	filled := BulkFill(rows, timezone.Now(), opts)
	return true, msg, rows, filled
}
