package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultUserAgent is sent when no other agent is configured. Plain Go
// client agents get blocked outright on most novel sites.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options configure the client. Zero values take the field defaults, except
// RetryWait where zero means no wait between attempts.
type Options struct {
	UserAgent   string
	Timeout     time.Duration // per attempt
	MaxAttempts int           // total attempts, transport errors only
	RetryWait   time.Duration // fixed wait between attempts, zero for none
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 3
	}
	if o.RetryWait < 0 {
		o.RetryWait = 0
	}
	return o
}

// A StatusError reports a non-2xx response. The site answered, it just
// refused, so these are never retried.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %v for %v", e.Status, e.URL)
}

// Client fetches pages over one shared transport and decodes the bodies.
// Safe for concurrent use.
type Client struct {
	http    *resty.Client
	decoder *Decoder
	logger  *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	client := resty.New()
	client.SetLogger(logger.Named("resty").Sugar())
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetRetryCount(opts.MaxAttempts - 1).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil
		})

	return &Client{
		http:    client,
		decoder: NewDecoder(logger),
		logger:  logger,
	}
}

// Fetch GETs the URL and returns the decoded body. Transport failures are
// retried with a fixed wait until the attempts run out; the first response,
// good or bad, ends the attempts.
func (c *Client) Fetch(ctx context.Context, url string, encodingHint string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to get %v: %w", url, err)
	}
	if !resp.IsSuccess() {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode(), Status: resp.Status()}
	}
	return c.decoder.Decode(resp.Body(), encodingHint), nil
}
