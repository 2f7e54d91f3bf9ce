package payslip

import (
	"context"

	"worktool/lib/scrapers/meisai"
)

// Navigator is the session the payslip flow drives. *meisai.Client is
// the real one; StubNavigator stands in when the portal module is
// unavailable so the rest of a run still executes.
type Navigator interface {
	Login(ctx context.Context, loginID, password string) (bool, string)
	FetchSalary(ctx context.Context, targets map[string]struct{}) []meisai.Record
	FetchBonus(ctx context.Context, fiscalYearLabel string, alreadyHave map[string]struct{}) []meisai.Record
	Logout(ctx context.Context)
	Close()
}

type StubNavigator struct{}

func (StubNavigator) Login(ctx context.Context, loginID, password string) (bool, string) {
	return false, "明細モジュールが利用できません"
}

func (StubNavigator) FetchSalary(ctx context.Context, targets map[string]struct{}) []meisai.Record {
	return nil
}

func (StubNavigator) FetchBonus(ctx context.Context, fiscalYearLabel string, alreadyHave map[string]struct{}) []meisai.Record {
	return nil
}

func (StubNavigator) Logout(ctx context.Context) {}

func (StubNavigator) Close() {}
