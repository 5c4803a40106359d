package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/adsskipbot/AdsSkipBot-Go/bot"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

// metaBodyLimit bounds how much of an HTML interstitial is read while
// scanning for a meta refresh tag.
const metaBodyLimit = 256 * 1024

var errTooManyRedirects = errors.New("too many redirects")

var (
	metaRefreshTagPattern     = regexp.MustCompile(`(?is)<meta[^>]+http-equiv\s*=\s*["']?refresh["']?[^>]*>`)
	metaRefreshContentPattern = regexp.MustCompile(`(?is)content\s*=\s*["']([^"']+)["']`)
)

// Resolver follows HTTP redirects and HTML meta-refresh hops to the true
// destination of a shortened URL.
type Resolver struct {
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	maxHops int
	timeout time.Duration
	logger  bot.Logger
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	MaxHops int
	Timeout time.Duration
	Logger  bot.Logger
}

// NewResolver creates a resolver with retry and circuit breaker.
func NewResolver(opts ResolverOptions) *Resolver {
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = 10
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	client.HTTPClient.Timeout = timeout
	client.HTTPClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxHops {
			return errTooManyRedirects
		}
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "link-resolver",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &Resolver{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		maxHops: maxHops,
		timeout: timeout,
		logger:  opts.Logger,
	}
}

// Resolve follows rawURL to its final destination. HTTP redirects are
// followed first with a header-only request; if the landing page is HTML
// its body is scanned for a meta refresh target, which restarts the chain.
// The whole operation is bounded by the configured timeout and by the
// caller's context.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	current := rawURL
	for hop := 0; hop < r.maxHops; hop++ {
		final, contentType, body, err := r.fetch(ctx, current)
		if err != nil {
			return "", err
		}
		current = final

		if !isHTML(contentType) {
			return current, nil
		}
		if body == nil {
			// HEAD told us it is HTML; fetch the body for the meta scan.
			body, err = r.fetchBody(ctx, current)
			if err != nil {
				// The destination is known even without the body.
				return current, nil
			}
		}

		target, ok := metaRefreshTarget(body, current)
		if !ok {
			return current, nil
		}
		if r.logger != nil {
			r.logger.Debug("meta refresh hop", "from", current, "to", target)
		}
		current = target
	}

	return "", fmt.Errorf("%w: more than %d hops", ErrResolution, r.maxHops)
}

// fetch issues a header-only request for rawURL, falling back to a full
// fetch when the server rejects it. It returns the URL after redirects,
// the content type, and the body when a full fetch happened.
func (r *Resolver) fetch(ctx context.Context, rawURL string) (finalURL, contentType string, body []byte, err error) {
	finalURL, contentType, err = r.head(ctx, rawURL)
	if err == nil {
		return finalURL, contentType, nil, nil
	}
	if errors.Is(err, ErrResolutionTimeout) {
		return "", "", nil, err
	}

	finalURL, contentType, body, err = r.get(ctx, rawURL)
	if err != nil {
		return "", "", nil, err
	}
	return finalURL, contentType, body, nil
}

func (r *Resolver) head(ctx context.Context, rawURL string) (string, string, error) {
	var finalURL, contentType string
	_, err := r.breaker.Execute(func() (interface{}, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("head rejected with status %d", resp.StatusCode)
		}
		finalURL = resp.Request.URL.String()
		contentType = resp.Header.Get("Content-Type")
		return nil, nil
	})
	if err != nil {
		return "", "", classify(ctx, err)
	}
	return finalURL, contentType, nil
}

func (r *Resolver) get(ctx context.Context, rawURL string) (string, string, []byte, error) {
	var finalURL, contentType string
	var body []byte
	_, err := r.breaker.Execute(func() (interface{}, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("get failed with status %d", resp.StatusCode)
		}
		finalURL = resp.Request.URL.String()
		contentType = resp.Header.Get("Content-Type")
		if isHTML(contentType) {
			body, _ = io.ReadAll(io.LimitReader(resp.Body, metaBodyLimit))
		}
		return nil, nil
	})
	if err != nil {
		return "", "", nil, classify(ctx, err)
	}
	return finalURL, contentType, body, nil
}

func (r *Resolver) fetchBody(ctx context.Context, rawURL string) ([]byte, error) {
	_, _, body, err := r.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrResolution)
	}
	return body, nil
}

// ValidateURL rejects input that is not an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrMalformedURL, rawURL)
	}
	return nil
}

// metaRefreshTarget scans an HTML body for a meta refresh tag and resolves
// its target relative to baseURL.
func metaRefreshTarget(body []byte, baseURL string) (string, bool) {
	tag := metaRefreshTagPattern.Find(body)
	if tag == nil {
		return "", false
	}
	content := metaRefreshContentPattern.FindSubmatch(tag)
	if content == nil {
		return "", false
	}

	// content looks like "0; url=https://example.com/target".
	parts := strings.SplitN(string(content[1]), ";", 2)
	if len(parts) < 2 {
		return "", false
	}
	target := strings.TrimSpace(parts[1])
	if i := strings.Index(strings.ToLower(target), "url="); i >= 0 {
		target = strings.TrimSpace(target[i+len("url="):])
	}
	target = strings.Trim(target, `'"`)
	if target == "" {
		return "", false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}
	resolved, err := base.Parse(target)
	if err != nil || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

func isHTML(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml")
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrResolutionTimeout, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %v", ErrResolutionTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrResolution, err)
}
