// Package lookup queries a public hash-to-UID index, which answers instantly
// for hashes someone has already cracked.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

const hashToUIDPath = "/api/v3/tool/hash2uid"

// ErrUnexpectedResponse is returned when the service answers with something
// other than an empty body or a UID.
var ErrUnexpectedResponse = errors.New("unexpected lookup response")

// Client queries the lookup service.
type Client struct {
	cfg    Config
	client *http.Client
	logger hclog.Logger
}

// NewClient returns a client for cfg.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lookup config: %w", err)
	}

	return &Client{
		cfg:    cfg,
		client: cfg.HTTPClient,
		logger: cfg.Logger.Named("lookup"),
	}, nil
}

// response is the body returned for a known hash.
type response struct {
	Data struct {
		UID json.RawMessage `json:"uid"`
	} `json:"data"`
}

// Lookup returns the UID recorded for hash. An unknown hash is reported as
// found == false with a nil error.
func (c *Client) Lookup(ctx context.Context, hash string) (uid uint64, found bool, err error) {
	if err := digits.ValidateHash(hash); err != nil {
		return 0, false, err
	}
	hash = digits.NormalizeHash(hash)

	endpoint := c.cfg.BaseURL + hashToUIDPath + "?" + url.Values{"hash": {hash}}.Encode()

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.get(ctx, endpoint)
		if err != nil {
			c.logger.Debug("lookup attempt failed", "attempt", attempt, "error", err)
			return err
		}
		body = b
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return 0, false, err
	}

	uid, found, err = parse(body)
	if err != nil {
		return 0, false, err
	}
	c.logger.Debug("lookup complete", "hash", hash, "found", found)
	return uid, found, nil
}

// get performs one request. Client errors are permanent; transport and
// server errors are retried.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d: %s",
			ErrUnexpectedResponse, resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return body, nil
}

// parse decodes the response body. The UID may be a JSON number or string.
func parse(body []byte) (uint64, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return 0, false, nil
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	raw := strings.Trim(string(r.Data.UID), `"`)
	if raw == "" || raw == "null" {
		return 0, false, nil
	}

	uid, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: uid %q", ErrUnexpectedResponse, raw)
	}
	return uid, true, nil
}
