package meisai

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"worktool/lib/jpcal"
	"worktool/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// candidate is one list-table row selected for a detail fetch.
type candidate struct {
	label  string
	button string
}

// scanCandidates walks the statement list table: the third cell holds
// the period label, the second cell's button is the event target that
// opens the row's detail page.
func scanCandidates(doc *goquery.Document, keep func(label string) bool) []candidate {
	var out []candidate
	doc.Find("table#tdb tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		label := textutil.CleanCell(cells.Eq(2).Text())
		if !keep(label) {
			return
		}
		button, ok := cells.Eq(1).Find("input").First().Attr("name")
		if !ok {
			return
		}
		out = append(out, candidate{label: label, button: button})
	})
	return out
}

func timestampFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("timestamp")
}

// fetchDetails visits every candidate's detail page in discovery order.
// Each round-trip must complete before the next begins: the server
// keeps a single page-flow cursor per session, and skipping the back
// step through the list page corrupts it.
func (c *Client) fetchDetails(ctx context.Context, kind string, list page, keep func(string) bool, aliases map[string]string, fields []string) ([]Record, error) {
	listURL := list.url
	listState := c.state

	cands := scanCandidates(list.doc, keep)
	slog.Info("scanned statement list", "kind", kind, "candidates", len(cands))

	var results []Record
	for _, cand := range cands {
		detail, err := c.postForm(ctx, kind+" Detail "+cand.label, listURL, listURL, listState.payload(cand.button))
		if err != nil {
			return results, err
		}
		results = append(results, Record{
			Period: cand.label,
			Fields: parseDetail(detail.doc, aliases, fields),
		})

		c.refresh(detail)
		back := c.state.payload(eventGoBack)
		if ts := timestampFromURL(detail.url); ts != "" {
			back["timestamp"] = ts
		}
		relisted, err := c.postForm(ctx, kind+" Back to List", detail.url, detail.url, back)
		if err != nil {
			return results, err
		}
		c.refresh(relisted)
		listURL = relisted.url
		listState = c.state
	}

	menu, err := c.postForm(ctx, "Back to Menu", listURL, listURL, listState.payload(eventGoBack))
	if err != nil {
		return results, err
	}
	c.refresh(menu)
	c.menuURL = menu.url
	c.menuState = c.state

	return results, nil
}

// FetchSalary retrieves the salary statements whose 8-rune month prefix
// appears in targets. Periods absent from the list table are silently
// skipped. Errors past login degrade to a partial result.
func (c *Client) FetchSalary(ctx context.Context, targets map[string]struct{}) []Record {
	if len(targets) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "client:FetchSalary")
	defer span.End()
	slog.Info("fetching salary statements", "targets", len(targets))

	list, err := c.postForm(ctx, "To Salary List", c.menuURL, c.menuURL, c.menuState.payload(eventShowSalary))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach salary list")
		slog.Error("salary list unreachable", "err", err)
		return nil
	}
	c.refresh(list)

	results, err := c.fetchDetails(ctx, "Salary", list, func(label string) bool {
		_, ok := targets[jpcal.PeriodPrefix(label)]
		return ok
	}, salaryFieldAliases, SalaryFields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "salary fetch aborted")
		slog.Error("salary fetch aborted, keeping partial results", "got", len(results), "err", err)
	}
	return results
}

// FetchBonus retrieves the bonus statements of one fiscal year that are
// not yet in alreadyHave. Bonus labels are payout dates, unique per
// day, so de-duplication compares full labels rather than prefixes.
func (c *Client) FetchBonus(ctx context.Context, fiscalYearLabel string, alreadyHave map[string]struct{}) []Record {
	ctx, span := tracer.Start(ctx, "client:FetchBonus")
	defer span.End()
	slog.Info("fetching bonus statements", "fiscal_year", fiscalYearLabel)

	list, err := c.postForm(ctx, "To Bonus List", c.menuURL, c.menuURL, c.menuState.payload(eventShowBonus))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach bonus list")
		slog.Error("bonus list unreachable", "err", err)
		return nil
	}
	if !strings.Contains(list.url, bonusMarker) {
		span.SetStatus(codes.Error, "bonus page did not open")
		slog.Info("bonus list did not open, skipping", "url", list.url)
		return nil
	}
	c.refresh(list)

	results, err := c.fetchDetails(ctx, "Bonus", list, func(label string) bool {
		if !strings.Contains(label, fiscalYearLabel) {
			return false
		}
		_, have := alreadyHave[label]
		return !have
	}, bonusFieldAliases, BonusFields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bonus fetch aborted")
		slog.Error("bonus fetch aborted, keeping partial results", "got", len(results), "err", err)
	}
	return results
}
