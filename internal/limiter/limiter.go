package limiter

import (
	"context"
	"io"
	"math"

	"golang.org/x/time/rate"
)

// ByteLimiter throttles copy throughput to a maximum number of bytes per second
type ByteLimiter struct {
	lim   *rate.Limiter
	burst int
}

// NewByteLimiter creates a limiter; a non-positive rate disables throttling and returns nil
func NewByteLimiter(bytesPerSecond int64) *ByteLimiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := int(bytesPerSecond)
	if bytesPerSecond > math.MaxInt32 {
		burst = math.MaxInt32
	}
	return &ByteLimiter{
		lim:   rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
		burst: burst,
	}
}

// WaitN blocks until n bytes may pass. Requests larger than the burst are split.
func (l *ByteLimiter) WaitN(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}
	for n > 0 {
		step := n
		if step > l.burst {
			step = l.burst
		}
		if err := l.lim.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// SetBytesPerSecond updates the rate
func (l *ByteLimiter) SetBytesPerSecond(bytesPerSecond int64) {
	if l == nil || bytesPerSecond <= 0 {
		return
	}
	l.lim.SetLimit(rate.Limit(bytesPerSecond))
}

// Reader wraps r so that every read is charged against the limiter.
// A nil limiter returns r unchanged.
func (l *ByteLimiter) Reader(ctx context.Context, r io.Reader) io.Reader {
	if l == nil {
		return r
	}
	return &reader{ctx: ctx, r: r, l: l}
}

type reader struct {
	ctx context.Context
	r   io.Reader
	l   *ByteLimiter
}

func (r *reader) Read(p []byte) (int, error) {
	if len(p) > r.l.burst {
		p = p[:r.l.burst]
	}
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.l.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
