// Package translate calls a Google-Translate-compatible endpoint to
// translate individual summary values. One call per leaf value.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client translates single strings into a target language.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a translation client. An empty baseURL selects the public
// endpoint.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://translate.googleapis.com"
	}
	c := resty.New()
	c.SetTimeout(30 * time.Second)
	return &Client{http: c, baseURL: baseURL}
}

// Translate implements pipeline.Translator. Empty input is returned as-is
// without a remote call.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     "auto",
			"tl":     targetLang,
			"dt":     "t",
			"q":      text,
		}).
		Get(c.baseURL + "/translate_a/single")
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("translate returned status %d", resp.StatusCode())
	}

	return parseResponse(resp.Body())
}

// parseResponse reassembles the translated segments from the nested-array
// payload the gtx endpoint returns: [[["<translated>","<original>",...],...],...].
func parseResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("parse translate payload: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translate payload")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("parse translate segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(seg[0], &piece); err != nil {
			return "", fmt.Errorf("parse translate segment: %w", err)
		}
		b.WriteString(piece)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("translation produced no output")
	}
	return b.String(), nil
}
