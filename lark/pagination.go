package lark

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Page is one page of a listing operation as reported by the server.
type Page[T any] struct {
	Items     []T
	HasMore   bool
	PageToken string
}

// PageFunc fetches one page. pageToken is empty for the first request and
// carries the previous page's continuation token afterwards.
type PageFunc[T any] func(ctx context.Context, pageToken string) (Page[T], error)

// PageOptions bound an auto-paginated walk.
type PageOptions struct {
	// PageSize is the per-request item count, also used for the short-page
	// early stop. Defaults to 50.
	PageSize int
	// MaxPages caps the number of round trips. Zero or negative means
	// unbounded.
	MaxPages int
	// PageToken resumes a previously truncated walk.
	PageToken string
	// Delay is a fixed cooperative wait between pages to stay under rate
	// limits. It is not a backoff; no retry-on-429 logic exists here.
	Delay time.Duration
}

// ListResult is the accumulated outcome of a walk. HasMore and NextPageToken
// reflect the last page seen, so a truncated walk can be resumed by passing
// NextPageToken back in PageOptions.
type ListResult[T any] struct {
	Items         []T
	HasMore       bool
	NextPageToken string
}

// Paginate repeatedly issues fetch, following continuation tokens and
// accumulating items, until the server reports no more pages, no token is
// returned, a page comes back shorter than the requested size, or the page
// budget is exhausted. An immediately empty first page terminates with zero
// items and no error. On a fetch error the items accumulated so far are
// returned alongside it.
func Paginate[T any](ctx context.Context, fetch PageFunc[T], opts PageOptions) (ListResult[T], error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var pacer *Pacer
	if opts.Delay > 0 {
		pacer = NewPacer(opts.Delay)
	}

	result := ListResult[T]{NextPageToken: opts.PageToken}
	for page := 1; opts.MaxPages <= 0 || page <= opts.MaxPages; page++ {
		if page > 1 {
			if err := pacer.Wait(ctx); err != nil {
				return result, err
			}
		}

		p, err := fetch(ctx, result.NextPageToken)
		if err != nil {
			return result, err
		}
		if len(p.Items) == 0 {
			break
		}

		result.Items = append(result.Items, p.Items...)
		result.HasMore = p.HasMore
		result.NextPageToken = p.PageToken

		// Short page heuristic: fewer items than requested means the
		// collection is exhausted even if the server still claims more.
		if !p.HasMore || p.PageToken == "" || len(p.Items) < pageSize {
			break
		}
	}
	return result, nil
}

// Pacer spaces successive operations by a fixed interval. It is a
// cooperative wait built on a token bucket, not a derived backoff.
// A nil Pacer waits for nothing.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer enforcing at most one operation per interval.
// The first Wait never blocks.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next operation is due or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
