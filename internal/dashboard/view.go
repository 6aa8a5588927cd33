// Package dashboard is the server-rendered metrics page: one View per
// browser session plus the HTTP handlers that drive it.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"metricsdash/internal/metrics"
	"metricsdash/internal/session"
)

// API is the part of the metrics API a View needs.
type API interface {
	session.Authenticator
	metrics.Fetcher
}

// View is the dashboard state of one browser session.
type View struct {
	Session *session.Manager
	Metrics *metrics.Controller
	logger  *slog.Logger

	mu     sync.Mutex
	status Status
	table  metrics.Table
}

func NewView(api API, money metrics.MoneyFormatter, order metrics.SortOrder, logger *slog.Logger) *View {
	sm := session.NewManager(api, logger)
	return &View{
		Session: sm,
		Metrics: metrics.NewController(api, sm, money, order, logger),
		logger:  logger,
		status:  Status{Kind: StatusIdle, Message: "Log in to start."},
		table:   metrics.MessageTable(metrics.LoginRequiredMessage),
	}
}

// Login runs a login attempt and, when it succeeds, loads the metrics.
func (v *View) Login(ctx context.Context, email, password string) Status {
	s, err := v.Session.Login(ctx, email, password)
	if err != nil {
		st := loginFailed(err)
		v.mu.Lock()
		defer v.mu.Unlock()
		v.status = st
		if !errors.Is(err, session.ErrEmptyCredentials) {
			v.Metrics.Reset()
			v.table = metrics.MessageTable(metrics.LoginRequiredMessage)
		}
		return st
	}
	v.setStatus(loginSucceeded(s))
	return v.Load(ctx)
}

func (v *View) Logout() {
	v.Session.Logout()
	v.Metrics.Reset()
	v.mu.Lock()
	v.status = Status{Kind: StatusIdle, Message: "Logged out."}
	v.table = metrics.MessageTable(metrics.LoginRequiredMessage)
	v.mu.Unlock()
}

// Apply merges filter and sort parameters into the query state and reloads.
func (v *View) Apply(ctx context.Context, params url.Values) Status {
	if err := v.Metrics.Apply(params); err != nil {
		st := invalidFilter(err)
		v.setStatus(st)
		return st
	}
	return v.Load(ctx)
}

// Load fetches the table for the current query state and records the
// outcome. A load overtaken by a newer one leaves the view untouched.
func (v *View) Load(ctx context.Context) Status {
	tbl, err := v.Metrics.Load(ctx)
	if errors.Is(err, metrics.ErrStale) {
		return v.Status()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case err == nil:
		v.table = tbl
		v.status = metricsLoaded(tbl)
	case tbl.Error != "":
		v.table = tbl
		v.status = loadFailed(err)
	default:
		v.status = loadFailed(err)
	}
	if err != nil && !errors.Is(err, metrics.ErrUnauthenticated) {
		v.logger.Warn("load metrics", "err", err)
	}
	return v.status
}

func (v *View) setStatus(s Status) {
	v.mu.Lock()
	v.status = s
	v.mu.Unlock()
}

func (v *View) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *View) Table() metrics.Table {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.table
}

// Page is everything the template needs to draw the dashboard.
type Page struct {
	Authenticated bool
	Role          string
	CanLoad       bool
	Status        Status
	State         metrics.QueryState
	SortOrders    []metrics.SortOrder
	Table         metrics.Table
}

func (v *View) Page() Page {
	s, ok := v.Session.Session()
	return Page{
		Authenticated: ok,
		Role:          s.DisplayRole(),
		CanLoad:       ok,
		Status:        v.Status(),
		State:         v.Metrics.State(),
		SortOrders:    []metrics.SortOrder{metrics.Asc, metrics.Desc},
		Table:         v.Table(),
	}
}
