package restyutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// NetworkLog is an append-only side channel that mirrors every portal
// round-trip for after-the-fact debugging. A zero NetworkLog is a no-op.
type NetworkLog struct {
	name string
	path string
}

func NewNetworkLog(dir, name string) NetworkLog {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		slog.Warn("failed to create network log directory", "dir", dir, "err", err)
		return NetworkLog{}
	}
	return NetworkLog{
		name: name,
		path: filepath.Join(dir, "debug_network_log.txt"),
	}
}

// Record appends a step header, the request URL and the response status.
func (l NetworkLog) Record(step string, res *resty.Response) {
	if l.path == "" || res == nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		slog.Warn("failed to open network log", "path", l.path, "err", err)
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "--- [%s] %s ---\n", l.name, step)
	fmt.Fprintf(f, "URL: %s\n", res.Request.URL)
	fmt.Fprintf(f, "Status: %d\n\n", res.StatusCode())
}

// InstrumentClient logs every request at debug level.
func InstrumentClient(client *resty.Client) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		slog.Debug("start request", "method", req.Method, "url", req.URL)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		slog.Debug(
			"request finished",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
		)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		slog.Error("request failed", "method", req.Method, "url", req.URL, "err", err)
	})
}

// DecodeBody converts a response body to UTF-8, sniffing the charset
// from the Content-Type header and the document itself. The legacy
// portals still serve Shift_JIS here and there. Returns the decoded
// bytes and the resolved encoding name.
func DecodeBody(res *resty.Response) ([]byte, string, error) {
	body := res.Body()
	enc, name, _ := charset.DetermineEncoding(body, res.Header().Get("Content-Type"))
	if strings.EqualFold(name, "utf-8") {
		return body, name, nil
	}
	decoded, err := io.ReadAll(transform.NewReader(
		strings.NewReader(string(body)),
		enc.NewDecoder(),
	))
	if err != nil {
		return body, name, err
	}
	return decoded, name, nil
}
