package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/timelinekit/timeline/internal/utils"
)

// Client calls an enhancement service on behalf of the editor.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a client for the service at url. A nil httpClient gets
// a 30 second timeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{url: url, http: httpClient}
}

// Enhance returns the rewritten text, or text itself when the service cannot
// help. It never fails: errors are logged and the input is handed back.
func (c *Client) Enhance(ctx context.Context, text string, kind Kind, tc *Context) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, err := c.call(ctx, Request{Text: text, Type: kind, Context: tc})
	if err != nil {
		utils.Log.Warnf("[enhance] keeping original %s: %v", kind, err)
		return text
	}
	if out == "" {
		return text
	}
	return out
}

func (c *Client) call(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return "", err
	}
	utils.Log.Debugf("[enhance] service answered %d in %s", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("service error %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("service returned invalid JSON")
	}
	return gjson.GetBytes(raw, "enhancedText").String(), nil
}
