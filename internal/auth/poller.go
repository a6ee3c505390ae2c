package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/state"
)

// DefaultPollInterval is how often the waiting screen re-checks approval.
const DefaultPollInterval = 5 * time.Minute

// checkTimeout bounds a shared check, which outlives its callers' contexts.
const checkTimeout = 30 * time.Second

// Poller re-checks a pending membership on a timer and on demand. Timer and
// manual checks share one in-flight request.
type Poller struct {
	resolver *Resolver
	interval time.Duration
	group    singleflight.Group
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(resolver *Resolver, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		resolver: resolver,
		interval: interval,
		logger:   resolver.logger.With("component", "poller"),
	}
}

// Check asks the backend for the user's membership status and returns the
// route it implies. Concurrent callers share a single request. Failures
// other than an expired session keep the user waiting.
//
// The shared request runs detached from ctx under its own timeout, so a
// caller that joins an in-flight check is not cut short when the caller
// that started it goes away. Canceling ctx only stops this caller's wait.
func (p *Poller) Check(ctx context.Context) (Route, error) {
	ch := p.group.DoChan("check", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), checkTimeout)
		defer cancel()
		return p.check(ctx)
	})
	select {
	case res := <-ch:
		return res.Val.(Route), res.Err
	case <-ctx.Done():
		return RouteWaiting, ctx.Err()
	}
}

func (p *Poller) check(ctx context.Context) (Route, error) {
	r := p.resolver
	user, err := r.backend.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuth) {
			return RouteLogin, err
		}
		p.logger.Warn("approval check", "error", err)
		return RouteWaiting, err
	}
	r.store.Dispatch(state.UserUpdated{User: user})

	// A rejected request still reports a pending organization status on
	// some backends; only then does the account status decide.
	if Decide(true, user) == RouteWaiting && user.MembershipStatus() == model.MembershipRejected {
		return RouteOrganizationChoice, nil
	}
	return r.enter(ctx, user), nil
}

// Start polls every interval until the route leaves Waiting or ctx ends.
// onChange is called once with the new route. Starting a running poller
// stops the previous loop first.
func (p *Poller) Start(ctx context.Context, onChange func(Route)) {
	p.Stop()

	p.mu.Lock()
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				route, _ := p.Check(ctx)
				if route != RouteWaiting {
					if ctx.Err() == nil {
						onChange(route)
					}
					return
				}
			}
		}
	}()
}

// Stop cancels the polling loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
