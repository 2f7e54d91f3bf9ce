// Package meisai drives the payroll/bonus statement portal, a legacy
// ASP.NET WebForms site. Every page transition is a form POST that must
// echo the view-state tokens of the immediately preceding response, so
// the client is a strictly sequential state machine:
//
//	LoggedOut -> MenuReady -> ListReady -> DetailReady -> ListReady -> MenuReady -> LoggedOut
package meisai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"worktool/lib/restyutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/meisai")

const (
	loginPath   = "Login.aspx"
	menuMarker  = "PMenu.aspx"
	bonusMarker = "PShowSB.aspx"

	eventShowSalary = "cmdShowSalary"
	eventShowBonus  = "cmdShowBonus"
	eventGoBack     = "cmdGoBack"
	eventLogout     = "cmdLogOut"
)

type Client struct {
	http *resty.Client
	log  restyutil.NetworkLog

	baseURL     string
	companyCode string

	// per-session mutable cursor: the hidden-field snapshot and URL of
	// the newest response. Single writer, refreshed after every request.
	state      formState
	currentURL string

	// home state cached on successful login, the origin of every
	// list-page excursion.
	menuURL   string
	menuState formState
}

type Options struct {
	// BaseURL is the portal root, e.g. "https://meisai.example.co.jp/users".
	BaseURL string
	// CompanyCode is appended to the login URL as the "c" query parameter.
	CompanyCode string
	// LogDir, when set, receives an append-only network log.
	LogDir string
}

// NewClient validates required configuration before any network call.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("meisai: base url is not configured")
	}
	if opts.CompanyCode == "" {
		return nil, fmt.Errorf("meisai: company code is not configured")
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
		log = restyutil.NewNetworkLog(opts.LogDir, "meisai")
	}

	return &Client{
		http:        client,
		log:         log,
		baseURL:     opts.BaseURL,
		companyCode: opts.CompanyCode,
	}, nil
}

// Close releases the underlying connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// page is one fetched document plus the URL it resolved to.
type page struct {
	doc *goquery.Document
	url string
}

func (c *Client) toPage(step string, res *resty.Response) (page, error) {
	c.log.Record(step, res)

	body, encoding, err := restyutil.DecodeBody(res)
	if err != nil {
		slog.Warn("failed to decode response body", "step", step, "encoding", encoding, "err", err)
		body = res.Body()
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return page{}, err
	}

	finalURL := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	return page{doc: doc, url: finalURL}, nil
}

func (c *Client) get(ctx context.Context, step, target string) (page, error) {
	res, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		return page{}, err
	}
	return c.toPage(step, res)
}

func (c *Client) postForm(ctx context.Context, step, target, referer string, form map[string]string) (page, error) {
	req := c.http.R().SetContext(ctx).SetFormData(form)
	if referer != "" {
		req.SetHeader("Referer", referer)
	}
	res, err := req.Post(target)
	if err != nil {
		return page{}, err
	}
	return c.toPage(step, res)
}

// refresh replaces the session cursor with the given page's snapshot.
// Snapshots are never merged across pages.
func (c *Client) refresh(p page) {
	c.currentURL = p.url
	c.state = extractFormState(p.doc)
}

// Login performs the GET+POST login handshake. Success is determined
// solely by the final URL landing on the menu page; any other outcome
// is reported as a message, never an error value.
func (c *Client) Login(ctx context.Context, loginID, password string) (bool, string) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	loginURL := fmt.Sprintf("%s/%s?c=%s", c.baseURL, loginPath, url.QueryEscape(c.companyCode))

	p, err := c.get(ctx, "Login Page GET", loginURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return false, fmt.Sprintf("ログインエラー: %v", err)
	}
	c.refresh(p)

	form := c.state.payload("")
	form["HiddenField1"] = "JavaScript On!"
	form["CheckWidth"] = "99999"
	form["txtLoginID"] = loginID
	form["txtLoginPW"] = password
	form["cmdSubmit"] = "ログイン"

	p, err = c.postForm(ctx, "Login POST", loginURL, "", form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post credentials")
		return false, fmt.Sprintf("ログインエラー: %v", err)
	}

	if !strings.Contains(p.url, menuMarker) {
		span.SetStatus(codes.Error, "login rejected")
		return false, "ログインに失敗しました"
	}

	c.refresh(p)
	c.menuURL = p.url
	c.menuState = c.state
	return true, "ログイン成功"
}

// Logout issues the explicit logout event. A no-op when login never
// succeeded.
func (c *Client) Logout(ctx context.Context) {
	if c.menuURL == "" {
		return
	}
	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	_, err := c.postForm(ctx, "Logout", c.currentURL, c.currentURL, c.state.payload(eventLogout))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "logout request failed")
		slog.Error("error during logout", "err", err)
	}
}
