// Package metrics builds metrics queries, fetches them and renders the
// result into a Table.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"metricsdash/internal/apiclient"
)

var (
	ErrUnauthenticated = errors.New("metrics: login required")
	// ErrStale is returned by a load that was overtaken by a newer one.
	ErrStale = errors.New("metrics: superseded by a newer load")
)

type Fetcher interface {
	Metrics(ctx context.Context, token string, params url.Values) ([]apiclient.Row, error)
}

type TokenSource interface {
	Token() string
}

// Controller owns the query state of one dashboard and loads the table for
// it. Starting a load cancels the one in flight; only the newest load may
// update the table.
type Controller struct {
	fetcher Fetcher
	tokens  TokenSource
	money   MoneyFormatter
	logger  *slog.Logger

	mu      sync.Mutex
	initial QueryState
	state   QueryState
	seq     uint64
	cancel  context.CancelFunc
}

func NewController(fetcher Fetcher, tokens TokenSource, money MoneyFormatter, order SortOrder, logger *slog.Logger) *Controller {
	if order == "" {
		order = Asc
	}
	initial := QueryState{SortOrder: order}
	return &Controller{
		fetcher: fetcher,
		tokens:  tokens,
		money:   money,
		logger:  logger,
		initial: initial,
		state:   initial,
	}
}

func (c *Controller) State() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState replaces the query state after validating it.
func (c *Controller) SetState(q QueryState) error {
	if err := q.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = q
	c.mu.Unlock()
	return nil
}

// SortBy makes column the active sort column.
func (c *Controller) SortBy(column string) {
	c.mu.Lock()
	c.state.SortBy = column
	c.mu.Unlock()
}

// Apply merges request parameters into the query state.
func (c *Controller) Apply(params url.Values) error {
	q, err := c.State().Apply(params)
	if err != nil {
		return err
	}
	return c.SetState(q)
}

// Reset cancels any load in flight and restores the initial state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = c.initial
}

// Load fetches the metrics for the current query state. Without a token it
// fails with ErrUnauthenticated and makes no request. When the API answers
// with an error the returned Table is an error row.
func (c *Controller) Load(ctx context.Context) (Table, error) {
	token := c.tokens.Token()
	if token == "" {
		return Table{}, ErrUnauthenticated
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	state := c.state
	c.mu.Unlock()
	defer cancel()

	rows, err := c.fetcher.Metrics(ctx, token, state.Values())

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("discarding stale metrics response", "seq", seq, "latest", c.seq)
		return Table{}, ErrStale
	}
	c.cancel = nil

	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			return ErrorTable(apiErr.Detail), err
		}
		return Table{}, err
	}

	t := Render(rows, state, c.money)
	c.logger.Debug("metrics loaded", "rows", t.RowCount, "sort_by", state.SortBy, "sort_order", state.SortOrder)
	return t, nil
}
