package payslip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"worktool/lib/scrapers/meisai"
	"worktool/lib/telemetry"
)

type fakeNavigator struct {
	acceptLogin bool

	salaryTargets map[string]struct{}
	bonusYears    []string
	loggedOut     bool
	closed        bool
}

func (f *fakeNavigator) Login(ctx context.Context, loginID, password string) (bool, string) {
	if !f.acceptLogin {
		return false, "ログインに失敗しました"
	}
	return true, "ログイン成功"
}

func (f *fakeNavigator) FetchSalary(ctx context.Context, targets map[string]struct{}) []meisai.Record {
	f.salaryTargets = targets
	var out []meisai.Record
	for prefix := range targets {
		out = append(out, meisai.Record{
			Period: prefix + "25日 給与",
			Fields: map[string]meisai.Value{"総支給額": {Kind: meisai.KindInt, Int: 400000}},
		})
	}
	return out
}

func (f *fakeNavigator) FetchBonus(ctx context.Context, fiscalYearLabel string, alreadyHave map[string]struct{}) []meisai.Record {
	f.bonusYears = append(f.bonusYears, fiscalYearLabel)
	label := fiscalYearLabel + "07月10日"
	if _, ok := alreadyHave[label]; ok {
		return nil
	}
	return []meisai.Record{{
		Period: label,
		Fields: map[string]meisai.Value{"賞与額": {Kind: meisai.KindInt, Int: 500000}},
	}}
}

func (f *fakeNavigator) Logout(ctx context.Context) { f.loggedOut = true }
func (f *fakeNavigator) Close()                     { f.closed = true }

func testService(t *testing.T, nav Navigator) Service {
	return Service{
		Config:       Config{DataDir: t.TempDir()},
		NewNavigator: func() (Navigator, error) { return nav, nil },
	}
}

func TestRunFetchesOnlyMissingMonths(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:payslip")
	defer cleanup()

	nav := &fakeNavigator{acceptLogin: true}
	svc := testService(t, nav)

	seed := NewSalaryStore(svc.Config.DataDir)
	require.NoError(t, seed.Save([]map[string]string{
		{"年月日": "令和07年01月25日 給与", "総支給額": "400000"},
	}))

	ok, result := svc.Run(context.Background(), Credentials{LoginID: "u", Password: "p"}, 2025, false)
	require.True(t, ok, result.Message)

	require.NotContains(t, nav.salaryTargets, "令和07年01月")
	require.True(t, nav.loggedOut)
	require.True(t, nav.closed)
	require.Greater(t, result.NewSalaryRows, 0)
	require.Equal(t, 1, result.NewBonusRows)
	require.Equal(t, []string{"令和07年"}, nav.bonusYears)
	require.Len(t, result.Summaries, 1)

	// everything fetched must now be on disk
	_, keys := seed.Load()
	require.Contains(t, keys, "令和07年01月")
	for prefix := range nav.salaryTargets {
		require.Contains(t, keys, prefix)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:payslip")
	defer cleanup()

	nav := &fakeNavigator{acceptLogin: true}
	svc := testService(t, nav)

	ok, first := svc.Run(context.Background(), Credentials{LoginID: "u", Password: "p"}, 2025, false)
	require.True(t, ok)
	require.Greater(t, first.NewSalaryRows, 0)

	ok, second := svc.Run(context.Background(), Credentials{LoginID: "u", Password: "p"}, 2025, false)
	require.True(t, ok)
	require.Zero(t, second.NewSalaryRows)
	require.Zero(t, second.NewBonusRows)
	require.Equal(t, "新しい明細はありませんでした", second.Message)
}

func TestRunLoginFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:payslip")
	defer cleanup()

	nav := &fakeNavigator{acceptLogin: false}
	svc := testService(t, nav)

	ok, result := svc.Run(context.Background(), Credentials{LoginID: "u", Password: "bad"}, 2025, false)
	require.False(t, ok)
	require.Equal(t, "ログインに失敗しました", result.Message)
	require.False(t, nav.loggedOut)
	require.True(t, nav.closed)
}

func TestStubNavigator(t *testing.T) {
	svc := Service{
		Config:       Config{DataDir: t.TempDir()},
		NewNavigator: func() (Navigator, error) { return StubNavigator{}, nil },
	}
	ok, result := svc.Run(context.Background(), Credentials{LoginID: "u", Password: "p"}, 2025, false)
	require.False(t, ok)
	require.NotEmpty(t, result.Message)
}
