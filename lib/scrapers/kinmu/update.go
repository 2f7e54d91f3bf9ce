package kinmu

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"worktool/lib/restyutil"
	"worktool/lib/textutil"
	"worktool/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// UpdateSchedule validates the rows, rebuilds the bulk-edit payload on
// top of a fresh fetch of the form, submits it, and re-fetches the
// authoritative post-submit state. The returned rows are that new
// baseline; they are empty when the re-fetch failed even though the
// server accepted the update.
func (c *Client) UpdateSchedule(ctx context.Context, rows []Row) (bool, string, []Row) {
	ctx, span := tracer.Start(ctx, "client:UpdateSchedule")
	defer span.End()
	slog.Info("submitting schedule update", "rows", len(rows))

	if errs := ValidateRows(rows); len(errs) > 0 {
		span.SetStatus(codes.Error, "validation failed")
		slog.Warn("schedule validation failed", "violations", len(errs))
		return false, "入力内容に不備があります。修正してください。\n\n" + strings.Join(errs, "\n"), nil
	}

	// re-fetch the page right before submitting: the payload must echo
	// the newest server-managed fields
	res, err := c.http.R().SetContext(ctx).Get(c.currentURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch form page")
		return false, fmt.Sprintf("更新エラー: %v", err), nil
	}
	doc, finalURL, err := c.document("Pre-Update GET", res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse form page")
		return false, fmt.Sprintf("更新エラー: %v", err), nil
	}
	c.currentURL = finalURL

	form, postURL := c.locateForm(doc)
	payload := buildPayload(form, rows, timezone.Now())

	post, err := c.http.R().
		SetContext(ctx).
		SetHeader("Referer", c.currentURL).
		SetHeader("Origin", c.origin).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormDataFromValues(payload).
		Post(postURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update request failed")
		return false, fmt.Sprintf("更新エラー: %v", err), nil
	}
	c.log.Record("Update Schedule POST", post)
	if post.IsError() {
		span.SetStatus(codes.Error, "update returned error status")
		return false, fmt.Sprintf("更新エラー: status %d", post.StatusCode()), nil
	}

	decoded, _, err := restyutil.DecodeBody(post)
	if err != nil {
		decoded = post.Body()
	}
	body := string(decoded)
	if strings.Contains(body, "System Error") || strings.Contains(body, "システムエラー") {
		span.SetStatus(codes.Error, "server reported system error")
		slog.Error("schedule portal reported a system error")
		return false, "システムエラーが発生しました。", nil
	}
	if strings.Contains(body, "入力エラー") || strings.Contains(body, `class="error"`) {
		detail := extractErrorMessage(body)
		span.SetStatus(codes.Error, "server rejected input")
		slog.Error("schedule portal rejected the input", "detail", detail)
		return false, fmt.Sprintf("入力エラー: %s", detail), nil
	}

	ok, _, latest := c.GetCurrentSchedule(ctx)
	if !ok {
		return true, "登録が完了しました。\n(ただし最新データの再取得に失敗しました)", nil
	}
	return true, "登録が完了しました。", latest
}

// locateForm finds the bulk-edit form via its register control and
// resolves the POST target from the form's action. Without the control
// the whole document and current URL are used as a fallback.
func (c *Client) locateForm(doc *goquery.Document) (*goquery.Selection, string) {
	register := doc.Find("input[name='register']")
	if register.Length() == 0 {
		slog.Warn("register control not found on schedule page")
		return doc.Selection, c.currentURL
	}

	form := register.Closest("form")
	if form.Length() == 0 {
		return doc.Selection, c.currentURL
	}

	action, ok := form.Attr("action")
	if !ok || action == "" {
		return form, c.currentURL
	}
	base, err := url.Parse(c.currentURL)
	if err != nil {
		return form, c.currentURL
	}
	ref, err := url.Parse(action)
	if err != nil {
		return form, c.currentURL
	}
	return form, base.ResolveReference(ref).String()
}

var redListRegex = regexp.MustCompile(`(?i)color:\s*red`)

// extractErrorMessage scrapes every element carrying the error class,
// falling back to a red-styled list, and joins the texts into one
// combined message.
func extractErrorMessage(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "（詳細不明）"
	}

	var msgs []string
	doc.Find(".error").Each(func(_ int, sel *goquery.Selection) {
		if text := textutil.CleanCell(sel.Text()); text != "" {
			msgs = append(msgs, text)
		}
	})

	if len(msgs) == 0 {
		doc.Find("ul[style]").Each(func(_ int, ul *goquery.Selection) {
			if !redListRegex.MatchString(ul.AttrOr("style", "")) {
				return
			}
			ul.Find("li").Each(func(_ int, li *goquery.Selection) {
				if text := textutil.CleanCell(li.Text()); text != "" {
					msgs = append(msgs, text)
				}
			})
		})
	}

	if len(msgs) == 0 {
		return "（詳細不明）"
	}
	return strings.Join(msgs, " / ")
}
