package ai

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/time/rate"

	"gopherai-training/internal/errs"
)

const (
	DefaultCallTimeout   = 60 * time.Second
	DefaultHealthTimeout = 3 * time.Second
)

type ResponseCache interface {
	Get(ctx context.Context, key string) (*ChatResult, bool, error)
	Set(ctx context.Context, key string, result ChatResult) error
}

// Gateway fronts the single configured provider. It validates input, bounds every call
// with a timeout and converts failures into errs.ErrProvider errors.
type Gateway struct {
	provider      Provider
	callTimeout   time.Duration
	healthTimeout time.Duration
	limiter       *rate.Limiter
	cache         ResponseCache
}

type GatewayOption func(*Gateway)

func WithCallTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.callTimeout = d
		}
	}
}

func WithHealthTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.healthTimeout = d
		}
	}
}

// WithRateLimit caps provider calls per second. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) GatewayOption {
	return func(g *Gateway) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithResponseCache(cache ResponseCache) GatewayOption {
	return func(g *Gateway) {
		g.cache = cache
	}
}

func NewGateway(provider Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:      provider,
		callTimeout:   DefaultCallTimeout,
		healthTimeout: DefaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}

func (g *Gateway) Model() string {
	return g.provider.Model()
}

func (g *Gateway) Chat(ctx context.Context, messages []ChatMessage) (*ChatResult, error) {
	if err := ValidateMessages(messages); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	useCache := g.cache != nil && g.provider.Name() != ProviderMock
	key := ""
	if useCache {
		key = CacheKey(g.provider.Name(), g.provider.Model(), messages)
		if cached, hit, err := g.cache.Get(callCtx, key); err != nil {
			log.Printf("response cache get failed: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(callCtx); err != nil {
			return nil, errs.Provider(errs.ReasonRateLimited, "provider rate limit exceeded", err)
		}
	}

	type outcome struct {
		res *ChatResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := g.provider.Chat(callCtx, messages)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-callCtx.Done():
		return nil, contextFailure(callCtx.Err(), "provider call")
	case out := <-done:
		if out.err != nil {
			if ctxErr := callCtx.Err(); ctxErr != nil {
				return nil, contextFailure(ctxErr, "provider call")
			}
			return nil, classify(out.err)
		}
		if out.res == nil {
			return nil, errs.Provider(errs.ReasonBadPayload, "provider returned no result", nil)
		}
		if out.res.Provider == "" {
			out.res.Provider = g.provider.Name()
		}
		if useCache {
			if err := g.cache.Set(ctx, key, *out.res); err != nil {
				log.Printf("response cache set failed: %v", err)
			}
		}
		return out.res, nil
	}
}

// CheckHealth probes the provider within the health timeout and always returns.
func (g *Gateway) CheckHealth(ctx context.Context) Health {
	probeCtx, cancel := context.WithTimeout(ctx, g.healthTimeout)
	defer cancel()

	done := make(chan Health, 1)
	go func() {
		done <- g.provider.CheckHealth(probeCtx)
	}()

	select {
	case h := <-done:
		return h
	case <-probeCtx.Done():
		return Health{
			Available: false,
			Provider:  g.provider.Name(),
			Model:     g.provider.Model(),
			Error:     contextFailure(probeCtx.Err(), "health check").Error(),
		}
	}
}

func contextFailure(err error, op string) error {
	if errors.Is(err, context.Canceled) {
		return errs.Provider(errs.ReasonCanceled, op+" canceled", err)
	}
	return errs.Provider(errs.ReasonTimeout, op+" timed out", err)
}

func classify(err error) error {
	if errors.Is(err, errs.ErrProvider) || errors.Is(err, errs.ErrValidation) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contextFailure(err, "provider call")
	}
	return errs.Provider(errs.ReasonUnavailable, "provider call failed", err)
}
