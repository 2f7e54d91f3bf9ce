package meisai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"worktool/lib/telemetry"
)

// fakePortal emulates the WebForms site: every render issues a fresh
// view-state token, every POST must echo the newest one, and page
// transitions are 302 redirects the way Response.Redirect does them.
type fakePortal struct {
	t   *testing.T
	srv *httptest.Server

	counter       int
	lastToken     string
	lastTimestamp string
	bonusEnabled  bool
	loggedOut     bool
	detailVisits  []string

	// dropButton names a list button whose event POST gets its
	// connection killed instead of answered.
	dropButton string
}

func dropConnection(t *testing.T, w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	require.True(t, ok)
	conn, _, err := hj.Hijack()
	require.NoError(t, err)
	conn.Close()
}

func newFakePortal(t *testing.T) *fakePortal {
	p := &fakePortal{t: t, bonusEnabled: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/Login.aspx", p.handleLogin)
	mux.HandleFunc("/users/PMenu.aspx", p.handleMenu)
	mux.HandleFunc("/users/PShowSK.aspx", p.handleSalaryList)
	mux.HandleFunc("/users/PShowSB.aspx", p.handleBonusList)
	mux.HandleFunc("/users/PShowM.aspx", p.handleDetail)

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePortal) client(t *testing.T) *Client {
	c, err := NewClient(Options{BaseURL: p.srv.URL + "/users", CompanyCode: "c0001"})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func (p *fakePortal) tokens() string {
	p.counter++
	p.lastToken = fmt.Sprintf("vs-%d", p.counter)
	return fmt.Sprintf(`<input type="hidden" name="__VIEWSTATE" value="%s">
		<input type="hidden" name="__VIEWSTATEGENERATOR" value="GEN">
		<input type="hidden" name="__EVENTVALIDATION" value="ev-%d">`, p.lastToken, p.counter)
}

// requireToken enforces the echo-back contract on every event POST.
func (p *fakePortal) requireToken(r *http.Request) {
	if got := r.PostFormValue("__VIEWSTATE"); got != p.lastToken {
		p.t.Errorf("stale view state echoed: got %q, want %q", got, p.lastToken)
	}
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		fmt.Fprintf(w, `<html><body><form>%s</form></body></html>`, p.tokens())
		return
	}
	p.requireToken(r)
	if r.PostFormValue("HiddenField1") != "JavaScript On!" || r.PostFormValue("cmdSubmit") == "" {
		p.t.Errorf("login POST missing fixed form fields")
	}
	if r.PostFormValue("txtLoginID") == "user1" && r.PostFormValue("txtLoginPW") == "pw1" {
		http.Redirect(w, r, "/users/PMenu.aspx", http.StatusFound)
		return
	}
	fmt.Fprintf(w, `<html><body><form>%s<span>IDまたはパスワードが違います</span></form></body></html>`, p.tokens())
}

func (p *fakePortal) handleMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		fmt.Fprintf(w, `<html><body><form>%s</form></body></html>`, p.tokens())
		return
	}
	p.requireToken(r)
	switch r.PostFormValue("__EVENTTARGET") {
	case eventShowSalary:
		http.Redirect(w, r, "/users/PShowSK.aspx", http.StatusFound)
	case eventShowBonus:
		if p.bonusEnabled {
			http.Redirect(w, r, "/users/PShowSB.aspx", http.StatusFound)
		} else {
			http.Redirect(w, r, "/users/PMenu.aspx", http.StatusFound)
		}
	case eventLogout:
		p.loggedOut = true
		http.Redirect(w, r, "/users/Login.aspx", http.StatusFound)
	default:
		p.t.Errorf("unexpected menu event %q", r.PostFormValue("__EVENTTARGET"))
	}
}

func (p *fakePortal) listPage(kind string, labels []string) string {
	var rows strings.Builder
	rows.WriteString(`<table id="tdb"><tr><th>No</th><th></th><th>支給日</th></tr>`)
	for i, label := range labels {
		fmt.Fprintf(&rows, `<tr><td>%d</td><td><input type="submit" name="btn%d" value="表示"></td><td> %s </td></tr>`, i+1, i, label)
	}
	rows.WriteString(`</table>`)
	return fmt.Sprintf(`<html><body><form>%s%s<input type="hidden" name="kind" value="%s"></form></body></html>`, p.tokens(), rows.String(), kind)
}

var salaryLabels = []string{"令和06年12月25日 給与", "令和07年06月25日 給与", "令和07年07月25日 給与"}
var bonusLabels = []string{"令和06年12月10日", "令和07年07月10日", "令和07年12月10日"}

func (p *fakePortal) handleSalaryList(w http.ResponseWriter, r *http.Request) {
	p.handleList(w, r, "salary", salaryLabels)
}

func (p *fakePortal) handleBonusList(w http.ResponseWriter, r *http.Request) {
	p.handleList(w, r, "bonus", bonusLabels)
}

func (p *fakePortal) handleList(w http.ResponseWriter, r *http.Request, kind string, labels []string) {
	if r.Method == http.MethodGet {
		fmt.Fprint(w, p.listPage(kind, labels))
		return
	}
	p.requireToken(r)
	target := r.PostFormValue("__EVENTTARGET")
	if target != "" && target == p.dropButton {
		dropConnection(p.t, w)
		return
	}
	if target == eventGoBack {
		http.Redirect(w, r, "/users/PMenu.aspx", http.StatusFound)
		return
	}
	for i := range labels {
		if target == fmt.Sprintf("btn%d", i) {
			p.lastTimestamp = fmt.Sprintf("ts-%d", p.counter)
			http.Redirect(w, r, fmt.Sprintf("/users/PShowM.aspx?kind=%s&row=%d&timestamp=%s", kind, i, p.lastTimestamp), http.StatusFound)
			return
		}
	}
	p.t.Errorf("unexpected list event %q", target)
}

func (p *fakePortal) handleDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		p.requireToken(r)
		if r.PostFormValue("__EVENTTARGET") != eventGoBack {
			p.t.Errorf("unexpected detail event %q", r.PostFormValue("__EVENTTARGET"))
		}
		if got := r.PostFormValue("timestamp"); got != p.lastTimestamp {
			p.t.Errorf("detail back POST lost the timestamp: got %q, want %q", got, p.lastTimestamp)
		}
		if r.URL.Query().Get("kind") == "bonus" {
			http.Redirect(w, r, "/users/PShowSB.aspx", http.StatusFound)
		} else {
			http.Redirect(w, r, "/users/PShowSK.aspx", http.StatusFound)
		}
		return
	}

	p.detailVisits = append(p.detailVisits, r.URL.Query().Get("kind")+":"+r.URL.Query().Get("row"))
	var body string
	if r.URL.Query().Get("kind") == "bonus" {
		body = `<dl><dt>賞与額</dt><dd>500,000</dd></dl>
			<dl><dt>差引支給額</dt><dd>400,000</dd></dl>
			<dl><dt>総支給額</dt><dd>500,000</dd></dl>
			<dl><dt>控除合計</dt><dd>100,000</dd></dl>
			<dl><dt>所得税</dt><dd>40,000</dd></dl>
			<dl><dt>社会保険料計</dt><dd>60,000</dd></dl>`
	} else {
		body = `<dl><dt>総支給額</dt><dd>456,789</dd></dl>
			<dl><dt>差引支給額</dt><dd>345,678</dd></dl>
			<dl><dt>総時間外</dt><dd>12.5</dd></dl>
			<dl><dt>有休使用日数</dt><dd>1</dd></dl>
			<dl><dt>有休残日数</dt><dd>18.5</dd></dl>
			<dl><dt>社員番号</dt><dd>A-100</dd></dl>`
	}
	fmt.Fprintf(w, `<html><body><form>%s<div id="Html">%s</div></form></body></html>`, p.tokens(), body)
}

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	c := portal.client(t)

	ok, msg := c.Login(context.Background(), "user1", "pw1")
	require.True(t, ok, msg)
	require.Equal(t, "ログイン成功", msg)
	require.Contains(t, c.menuURL, menuMarker)
}

func TestLoginRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	c := portal.client(t)

	ok, msg := c.Login(context.Background(), "user1", "wrong")
	require.False(t, ok)
	require.Equal(t, "ログインに失敗しました", msg)
	// a failed login must not promote any state to the menu snapshot
	require.Empty(t, c.menuURL)
}

func TestFetchSalary(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	c := portal.client(t)

	ok, _ := c.Login(context.Background(), "user1", "pw1")
	require.True(t, ok)

	targets := map[string]struct{}{
		"令和07年06月": {},
		"令和07年07月": {},
		"令和07年09月": {},
	}
	records := c.FetchSalary(context.Background(), targets)
	require.Len(t, records, 2)
	require.Equal(t, "令和07年06月25日 給与", records[0].Period)
	require.Equal(t, "令和07年07月25日 給与", records[1].Period)

	fields := records[0].Fields
	require.Equal(t, KindInt, fields["総支給額"].Kind)
	require.EqualValues(t, 456789, fields["総支給額"].Int)
	require.Equal(t, 12.5, fields["総時間外"].Float)
	// the portal's 有休 spelling maps onto the canonical 有給 field
	require.Equal(t, "18.5", fields["有給残日数"].String())
	// absent on the page, must surface as N/A instead of zero
	require.Equal(t, "N/A", fields["有給消化時間"].String())

	require.Equal(t, []string{"salary:1", "salary:2"}, portal.detailVisits)
	// the session must have returned home for the next excursion
	require.Contains(t, c.menuURL, menuMarker)
}

func TestFetchSalaryPartialOnMidLoopFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	// the second candidate's detail round-trip dies mid-flight
	portal.dropButton = "btn2"
	c := portal.client(t)

	ok, _ := c.Login(context.Background(), "user1", "pw1")
	require.True(t, ok)

	targets := map[string]struct{}{
		"令和07年06月": {},
		"令和07年07月": {},
	}
	records := c.FetchSalary(context.Background(), targets)
	// the statement fetched before the failure survives
	require.Len(t, records, 1)
	require.Equal(t, "令和07年06月25日 給与", records[0].Period)
	require.EqualValues(t, 456789, records[0].Fields["総支給額"].Int)
	require.Equal(t, []string{"salary:1"}, portal.detailVisits)
}

func TestFetchSalaryNoTargets(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	c := portal.client(t)

	ok, _ := c.Login(context.Background(), "user1", "pw1")
	require.True(t, ok)

	require.Nil(t, c.FetchSalary(context.Background(), nil))
	require.Empty(t, portal.detailVisits)
}

func TestFetchBonus(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	c := portal.client(t)

	ok, _ := c.Login(context.Background(), "user1", "pw1")
	require.True(t, ok)

	alreadyHave := map[string]struct{}{"令和07年12月10日": {}}
	records := c.FetchBonus(context.Background(), "令和07年", alreadyHave)
	require.Len(t, records, 1)
	require.Equal(t, "令和07年07月10日", records[0].Period)
	require.EqualValues(t, 500000, records[0].Fields["賞与額"].Int)
	require.Equal(t, []string{"bonus:1"}, portal.detailVisits)
}

func TestFetchBonusPageUnavailable(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	portal.bonusEnabled = false
	c := portal.client(t)

	ok, _ := c.Login(context.Background(), "user1", "pw1")
	require.True(t, ok)

	require.Nil(t, c.FetchBonus(context.Background(), "令和07年", nil))
	require.Empty(t, portal.detailVisits)
}

func TestLogout(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meisai")
	defer cleanup()

	portal := newFakePortal(t)
	c := portal.client(t)

	// without a successful login, logout must not touch the network
	c.Logout(context.Background())
	require.False(t, portal.loggedOut)

	ok, _ := c.Login(context.Background(), "user1", "pw1")
	require.True(t, ok)
	c.Logout(context.Background())
	require.True(t, portal.loggedOut)
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractFormStateMissing(t *testing.T) {
	doc := parseHTML(t, `<html><body><p>maintenance</p></body></html>`)
	state := extractFormState(doc)
	require.Equal(t, formState{}, state)

	payload := state.payload("cmdShowSalary")
	require.Equal(t, "cmdShowSalary", payload["__EVENTTARGET"])
	require.Equal(t, "", payload["__VIEWSTATE"])
}
