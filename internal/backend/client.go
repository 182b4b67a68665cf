// Package backend talks to the commerce backend over REST and GraphQL.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/wodoame/smecs/internal/metrics"
)

const maxBody = 8 << 20

type Config struct {
	BaseURL     string
	GraphQLPath string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      logrus.FieldLogger
}

// Client is safe for concurrent use. Calls are never retried or coalesced.
type Client struct {
	http    *http.Client
	baseURL string
	gqlPath string
	log     logrus.FieldLogger
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	gql := cfg.GraphQLPath
	if gql == "" {
		gql = "/graphql"
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		gqlPath: gql,
		log:     log,
	}
}

// call performs one request and returns the body of a 2xx response.
// token may be empty for public endpoints.
func (c *Client) call(ctx context.Context, op, method, path, token string, body any) ([]byte, error) {
	start := time.Now()
	raw, status, err := c.roundTrip(ctx, method, path, token, body)
	outcome := "ok"
	defer func() {
		metrics.RecordBackendCall(op, outcome, time.Since(start))
	}()

	if err != nil {
		outcome = "transport"
		c.log.WithFields(logrus.Fields{"op": op, "path": path}).WithError(err).Warn("backend call failed")
		return nil, &Error{Op: op, Kind: ErrTransport, Err: err}
	}
	if status < 200 || status > 299 {
		kind := kindForStatus(status)
		outcome = strings.ReplaceAll(kind.Error(), " ", "_")
		c.log.WithFields(logrus.Fields{"op": op, "path": path, "status": status}).Info("backend call rejected")
		return nil, &Error{Op: op, Status: status, Kind: kind, Message: errorMessage(raw)}
	}
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return raw, resp.StatusCode, nil
}

// errorMessage pulls a human readable reason out of an error body.
func errorMessage(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 200 {
			msg = msg[:200] + "...(truncated)"
		}
		return msg
	}
	for _, path := range []string{"message", "error", "detail"} {
		if v := gjson.GetBytes(raw, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
