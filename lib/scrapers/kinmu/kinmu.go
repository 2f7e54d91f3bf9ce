// Package kinmu drives the work-schedule portal: login, fetching the
// monthly bulk-edit grid and submitting schedule updates. Unlike the
// statement portal there is no explicit view-state block; round-trip
// safety comes from echoing every form field of the freshly fetched
// page back verbatim.
package kinmu

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"strings"

	"worktool/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/kinmu")

const authRedirectMarker = "/auth/"

type Client struct {
	http *resty.Client
	log  restyutil.NetworkLog

	loginURL string
	origin   string

	// currentURL follows the portal's redirects; after login it points
	// at the schedule page of the active period.
	currentURL string
}

type Options struct {
	// LoginURL is the credential POST endpoint.
	LoginURL string
	// Origin is sent as the Origin header on every POST; the portal
	// rejects cross-origin submissions without it.
	Origin string
	// LogDir, when set, receives an append-only network log.
	LogDir string
}

// NewClient validates required configuration before any network call.
func NewClient(opts Options) (*Client, error) {
	if opts.LoginURL == "" || opts.Origin == "" {
		return nil, fmt.Errorf("kinmu: login url or origin is not configured")
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeaders(map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "ja,en-US;q=0.9,en;q=0.8",
	})
	restyutil.InstrumentClient(client)

	var log restyutil.NetworkLog
	if opts.LogDir != "" {
		log = restyutil.NewNetworkLog(opts.LogDir, "kinmu")
	}

	return &Client{
		http:     client,
		log:      log,
		loginURL: opts.LoginURL,
		origin:   opts.Origin,
	}, nil
}

// Close releases the underlying connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

func (c *Client) document(step string, res *resty.Response) (*goquery.Document, string, error) {
	c.log.Record(step, res)

	body, encoding, err := restyutil.DecodeBody(res)
	if err != nil {
		slog.Warn("failed to decode response body", "step", step, "encoding", encoding, "err", err)
		body = res.Body()
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, "", err
	}

	finalURL := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	return doc, finalURL, nil
}

// Login posts credentials. The portal answers a bad login by bouncing
// back into its auth flow, so failure detection is purely the final URL
// containing the auth marker.
func (c *Client) Login(ctx context.Context, loginID, password string) (bool, string) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()
	slog.Info("logging in to schedule portal", "url", c.loginURL)

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Origin", c.origin).
		SetFormData(map[string]string{
			"loginId":  loginID,
			"password": password,
			"weblogin": "WEBログイン",
			"mobile":   "",
		}).
		Post(c.loginURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return false, fmt.Sprintf("ログインエラー: %v", err)
	}
	c.log.Record("Schedule Login", res)
	if res.IsError() {
		span.SetStatus(codes.Error, "login returned error status")
		return false, fmt.Sprintf("ログインエラー: status %d", res.StatusCode())
	}

	finalURL := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	if strings.Contains(finalURL, authRedirectMarker) {
		span.SetStatus(codes.Error, "login rejected")
		return false, "ログイン失敗: ID/PWを確認してください"
	}

	c.currentURL = finalURL
	slog.Info("schedule portal login ok", "url", finalURL)
	return true, "ログイン成功"
}

// GetCurrentSchedule fetches the active schedule page and parses its
// rows. Zero rows is reported as success with a warning; it usually
// means the page layout changed.
func (c *Client) GetCurrentSchedule(ctx context.Context) (bool, string, []Row) {
	ctx, span := tracer.Start(ctx, "client:GetCurrentSchedule")
	defer span.End()

	res, err := c.http.R().SetContext(ctx).Get(c.currentURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch schedule page")
		return false, fmt.Sprintf("データ取得エラー: %v", err), nil
	}
	doc, finalURL, err := c.document("Get Schedule Page", res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse schedule page")
		return false, fmt.Sprintf("データ取得エラー: %v", err), nil
	}
	c.currentURL = finalURL

	rows := parseRows(doc)
	slog.Info("parsed schedule rows", "count", len(rows))
	if len(rows) == 0 {
		slog.Warn("no schedule rows found; the page structure may have changed")
	}
	return true, "取得成功", rows
}
