package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/model"
)

func TestCheckRoutes(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		want Route
	}{
		{"approved account still pending", &model.User{Status: "approved", OrganizationStatus: model.OrgStatusPending}, RouteWaiting},
		{"approved account without org", &model.User{Status: "approved", OrganizationStatus: model.OrgStatusApproved}, RouteOrganizationChoice},
		{"approved account and org", &model.User{Status: "approved", OrganizationStatus: model.OrgStatusApproved, OrganizationID: orgID(3)}, RouteMainApp},
		{"still pending", &model.User{Status: "pending", OrganizationStatus: model.OrgStatusPending}, RouteWaiting},
		{"org status approved", &model.User{OrganizationStatus: model.OrgStatusApproved, OrganizationID: orgID(3)}, RouteMainApp},
	}
	for _, tt := range tests {
		b := &fakeBackend{user: tt.user, org: &model.Organization{ID: 3}}
		r, _ := setupResolver(t, b, "tok")
		p := NewPoller(r, time.Hour)

		got, err := p.Check(context.Background())
		if err != nil {
			t.Fatalf("%s: check: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: route = %q, want %q", tt.name, got, tt.want)
		}
		if resolved, _ := r.Resolve(context.Background()); resolved != got {
			t.Errorf("%s: poller route %q disagrees with resolver route %q", tt.name, got, resolved)
		}
		wantOrgCalls := int32(0)
		if tt.want == RouteMainApp {
			wantOrgCalls = 2
		}
		if n := b.orgCalls.Load(); n != wantOrgCalls {
			t.Errorf("%s: organization calls = %d, want %d", tt.name, n, wantOrgCalls)
		}
	}
}

func TestCheckRejectedLeavesWaiting(t *testing.T) {
	b := &fakeBackend{user: &model.User{Status: "Rejected", OrganizationStatus: model.OrgStatusPending}}
	r, _ := setupResolver(t, b, "tok")
	p := NewPoller(r, time.Hour)

	got, err := p.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if got != RouteOrganizationChoice {
		t.Errorf("route = %q, want %q", got, RouteOrganizationChoice)
	}
	if b.orgCalls.Load() != 0 {
		t.Error("rejected user should not load an organization")
	}
}

func TestCheckFailureKeepsWaiting(t *testing.T) {
	b := &fakeBackend{meErr: &api.Error{Kind: api.KindTransport}}
	r, _ := setupResolver(t, b, "tok")
	p := NewPoller(r, time.Hour)

	route, err := p.Check(context.Background())
	if route != RouteWaiting {
		t.Errorf("route = %q, want waiting", route)
	}
	if !errors.Is(err, api.ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}

	b.meErr = &api.Error{Kind: api.KindAuth, Status: 401}
	if route, _ := p.Check(context.Background()); route != RouteLogin {
		t.Errorf("route = %q, want login after 401", route)
	}
}

func TestCheckSharesInFlightRequest(t *testing.T) {
	b := &fakeBackend{
		user:  &model.User{Status: "pending", OrganizationStatus: model.OrgStatusPending},
		block: make(chan struct{}),
	}
	r, _ := setupResolver(t, b, "tok")
	p := NewPoller(r, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Check(context.Background())
		}()
	}
	// Let every caller reach the shared call before releasing it.
	deadline := time.Now().Add(time.Second)
	for b.meCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(b.block)
	wg.Wait()

	if n := b.meCalls.Load(); n != 1 {
		t.Errorf("me calls = %d, want 1 shared call", n)
	}
}

func TestStartStopsOnRouteChange(t *testing.T) {
	b := &fakeBackend{
		user: &model.User{Status: "approved", OrganizationStatus: model.OrgStatusApproved, OrganizationID: orgID(1)},
		org:  &model.Organization{ID: 1},
	}
	r, _ := setupResolver(t, b, "tok")
	p := NewPoller(r, 5*time.Millisecond)

	got := make(chan Route, 1)
	p.Start(context.Background(), func(route Route) { got <- route })
	defer p.Stop()

	select {
	case route := <-got:
		if route != RouteMainApp {
			t.Errorf("route = %q, want main_app", route)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reported a route change")
	}
}

func TestStopWithoutStart(t *testing.T) {
	b := &fakeBackend{user: &model.User{}}
	r, _ := setupResolver(t, b, "tok")
	NewPoller(r, time.Minute).Stop()
}

func TestCheckSurvivesFirstCallerCancel(t *testing.T) {
	b := &fakeBackend{
		user:  &model.User{OrganizationStatus: model.OrgStatusApproved, OrganizationID: orgID(1)},
		org:   &model.Organization{ID: 1},
		block: make(chan struct{}),
	}
	r, _ := setupResolver(t, b, "tok")
	p := NewPoller(r, time.Hour)

	timerCtx, cancelTimer := context.WithCancel(context.Background())
	timerErr := make(chan error, 1)
	go func() {
		_, err := p.Check(timerCtx)
		timerErr <- err
	}()
	deadline := time.Now().Add(time.Second)
	for b.meCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		route Route
		err   error
	}
	manual := make(chan result, 1)
	go func() {
		route, err := p.Check(context.Background())
		manual <- result{route, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelTimer()
	select {
	case err := <-timerErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("canceled caller err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("canceled caller still waiting")
	}

	close(b.block)
	select {
	case res := <-manual:
		if res.err != nil {
			t.Fatalf("joined check: %v", res.err)
		}
		if res.route != RouteMainApp {
			t.Errorf("route = %q, want %q", res.route, RouteMainApp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("joined check never returned")
	}
	if n := b.meCalls.Load(); n != 1 {
		t.Errorf("me calls = %d, want 1 shared call", n)
	}
}

func TestStartTwiceStopsEarlierLoop(t *testing.T) {
	b := &fakeBackend{user: &model.User{Status: "pending", OrganizationStatus: model.OrgStatusPending}}
	r, _ := setupResolver(t, b, "tok")
	p := NewPoller(r, 5*time.Millisecond)

	p.Start(context.Background(), func(Route) {})
	p.Start(context.Background(), func(Route) {})
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	// Let a check that was already in flight finish.
	time.Sleep(10 * time.Millisecond)

	before := b.meCalls.Load()
	time.Sleep(30 * time.Millisecond)
	if after := b.meCalls.Load(); after != before {
		t.Errorf("me calls went from %d to %d after Stop", before, after)
	}
}
