package llm

import (
	"context"

	"golang.org/x/time/rate"
)

type throttled struct {
	Provider
	limiter *rate.Limiter
}

// Throttle limits p to rpm calls per minute with bursts of up to rpm. A
// non-positive rpm returns p unchanged.
func Throttle(p Provider, rpm int) Provider {
	if rpm <= 0 {
		return p
	}
	return &throttled{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm),
	}
}

func (t *throttled) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.Provider.Complete(ctx, req)
}
