// Package tencent is a resilient client for the Tencent Cloud IDCardOCR action:
// every HTTP attempt is rate limited, freshly signed and retried with backoff
package tencent

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"idcardocr/internal/core/compress"
	"idcardocr/internal/core/signer"
	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"
)

const (
	endpointDefault    = "https://ocr.tencentcloudapi.com"
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = 2.0
	maxBackoff         = 60 * time.Second
	maxResponseBytes   = 16 << 20
)

// Admitter gates each outbound attempt
type Admitter interface {
	Admit(ctx context.Context) error
}

// Options configures the Client
type Options struct {
	Endpoint string
	Scope    signer.Scope
	Timeout  time.Duration

	// MaxRetries is the total number of attempts for one logical call
	MaxRetries int
	// BackoffBase is raised to the attempt index to get the wait in seconds
	BackoffBase float64

	CropIDCard   bool
	CropPortrait bool
}

// Client talks to the OCR endpoint
type Client struct {
	http    *http.Client
	opts    Options
	cred    signer.Credential
	signer  *signer.Signer
	limiter Admitter
	comp    *compress.Compressor
	log     *logger.Logger
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

// NewClient validates cred and builds a Client with sane defaults
// limiter may be nil for unthrottled use; comp nil means the default 10MB ceiling
func NewClient(cred signer.Credential, o Options, limiter Admitter, comp *compress.Compressor, log *logger.Logger) (*Client, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	if o.Endpoint == "" {
		o.Endpoint = endpointDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = defaultBackoffBase
	}
	log = logger.OrNamed(log, "tencent")
	if comp == nil {
		comp = compress.New(compress.Options{Log: log})
	}
	s := signer.New(o.Scope)
	o.Scope = s.Scope()
	return &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		cred:    cred,
		signer:  s,
		limiter: limiter,
		comp:    comp,
		log:     log,
		now:     time.Now,
		sleep:   sleepCtx,
	}, nil
}

// Send posts payload until a decodable response arrives or attempts run out
// Network errors, timeouts, 5xx and undecodable bodies are retried; anything
// decoded (including provider error payloads) is returned to the caller
func (c *Client) Send(ctx context.Context, payload []byte) (*Response, error) {
	var last error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, perr.Cancelled(err)
		}
		if c.limiter != nil {
			if err := c.limiter.Admit(ctx); err != nil {
				return nil, err
			}
		}

		// re-sign per attempt so the timestamp stays inside the gateway's skew window
		env := c.signer.Sign(payload, c.cred, c.now().Unix())

		start := c.now()
		resp, err := c.do(ctx, env)
		lat := c.now().Sub(start)
		if err == nil {
			c.log.Debug().
				Str("action", c.opts.Scope.Action).
				Int("status", resp.HTTPStatus).
				Int("attempt", attempt).
				Dur("latency", lat).
				Str("request_id", resp.RequestID).
				Msg("ocr http response")
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, perr.Cancelled(ctx.Err())
		}
		last = err

		if attempt+1 >= c.opts.MaxRetries {
			break
		}
		back := c.backoff(attempt)
		c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempt+1).Int("max", c.opts.MaxRetries).
			Msg("ocr call failed, retrying")
		if err := c.sleep(ctx, back); err != nil {
			return nil, perr.Cancelled(err)
		}
	}
	return nil, perr.Wrapf(last, perr.ErrorCodeTransport, "%s failed after %d attempts", c.opts.Scope.Action, c.opts.MaxRetries)
}

// do runs one HTTP attempt
func (c *Client) do(ctx context.Context, env signer.Envelope) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(env.Payload))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "ocr new request failed")
	}
	env.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "ocr do failed")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		_ = drainAndClose(resp.Body)
		return nil, &StatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "ocr read body failed")
	}
	out, err := decodeResponse(body)
	if err != nil {
		return nil, err
	}
	out.HTTPStatus = resp.StatusCode
	return out, nil
}

// backoff is BackoffBase^attempt seconds, capped
func (c *Client) backoff(attempt int) time.Duration {
	secs := math.Pow(c.opts.BackoffBase, float64(attempt))
	d := time.Duration(secs * float64(time.Second))
	if d > maxBackoff || d < 0 {
		d = maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
