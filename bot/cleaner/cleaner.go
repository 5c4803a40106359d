package cleaner

import (
	"context"
	"errors"

	"github.com/adsskipbot/AdsSkipBot-Go/bot"
)

// Cleaner composes redirect resolution and tracking-parameter filtering
// into a single clean operation.
type Cleaner struct {
	resolver *Resolver
	denylist *Denylist
	logger   bot.Logger
}

// Result is the outcome of a clean operation. Degraded is set when
// resolution failed and the original URL was filtered instead.
type Result struct {
	URL      string
	Degraded bool
}

// NewCleaner creates a Cleaner.
func NewCleaner(resolver *Resolver, denylist *Denylist, logger bot.Logger) *Cleaner {
	return &Cleaner{resolver: resolver, denylist: denylist, logger: logger}
}

// Clean resolves rawURL and strips tracking parameters from the result.
// It fails only for malformed input; resolution timeouts and network
// failures degrade to filtering the original URL, so the caller always
// gets a usable answer.
func (c *Cleaner) Clean(ctx context.Context, rawURL string) (Result, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Result{}, err
	}

	finalURL, err := c.resolver.Resolve(ctx, rawURL)
	if err != nil {
		if errors.Is(err, ErrMalformedURL) {
			return Result{}, err
		}
		if c.logger != nil {
			c.logger.Warn("resolution degraded to original url", "url", rawURL, "error", err)
		}
		return Result{URL: FilterParams(rawURL, c.denylist), Degraded: true}, nil
	}

	return Result{URL: FilterParams(finalURL, c.denylist)}, nil
}
