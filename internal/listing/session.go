package listing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"CatalogDash/internal/catalogapi"
)

// LoadErrorMessage is what a failed fetch shows in place of products.
const LoadErrorMessage = "Could not load products."

const DefaultDebounce = 350 * time.Millisecond

// Fetcher is the remote product query used by the pipeline.
type Fetcher interface {
	ListProducts(ctx context.Context, q catalogapi.ProductQuery) ([]catalogapi.Product, error)
}

type State string

const (
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

var ErrClosed = errors.New("listing session closed")

type Options struct {
	PageSize    int
	Debounce    time.Duration
	// SearchDelay is applied before fetches with a non-empty query.
	SearchDelay UXDelay
	Log         *zap.Logger
	Metrics     *Metrics
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Debounce < 0 {
		o.Debounce = 0
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// Snapshot is an immutable view of a listing session.
type Snapshot struct {
	State          State                    `json:"state"`
	Error          string                   `json:"error,omitempty"`
	Query          string                   `json:"query"`
	DebouncedQuery string                   `json:"debounced_query"`
	CategoryID     int                      `json:"category_id"`
	Sort           SortKey                  `json:"sort"`
	SearchPending  bool                     `json:"search_pending"`
	Page           Page[catalogapi.Product] `json:"page"`
	Fetches        int                      `json:"fetches"`
	Seq            uint64                   `json:"seq"`
}

// Session is one client's live product listing. Query changes are
// debounced; every fetch carries a sequence number and only the latest one
// may publish its result.
type Session struct {
	fetcher   Fetcher
	opts      Options
	debouncer *Debouncer
	base      context.Context
	stop      context.CancelFunc

	mu        sync.Mutex
	query     string
	debounced string
	category  int
	sort      SortKey
	page      int
	state     State
	errMsg    string
	products  []catalogapi.Product
	inflight  bool

	// state to restore when a pending query settles back to the applied one
	settled    State
	settledErr string
	seq       uint64
	fetches   int
	cancel    context.CancelFunc
	closed    bool
}

// Params seeds a session or a single Run.
type Params struct {
	Query      string
	CategoryID int
	Sort       SortKey
	Page       int
	PageSize   int
}

// NewSession starts a session and issues its first fetch immediately,
// without waiting for the debounce window.
func NewSession(f Fetcher, p Params, opts Options) *Session {
	opts = opts.withDefaults()
	if p.PageSize > 0 {
		opts.PageSize = p.PageSize
	}

	base, stop := context.WithCancel(context.Background())
	s := &Session{
		fetcher:   f,
		opts:      opts,
		base:      base,
		stop:      stop,
		query:     p.Query,
		debounced: strings.TrimSpace(p.Query),
		category:  max(p.CategoryID, 0),
		sort:      ParseSortKey(string(p.Sort)),
		page:      max(p.Page, 1),
	}
	s.debouncer = NewDebouncer(opts.Debounce, s.applyQuery)

	s.mu.Lock()
	s.startFetchLocked()
	s.mu.Unlock()
	return s
}

// SetQuery records raw search input and reports loading straight away when
// the effective query changes. The fetch happens once input has been stable
// for the debounce window.
func (s *Session) SetQuery(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.query = text
	s.page = 1
	if strings.TrimSpace(text) != s.debounced && s.state != StateLoading {
		s.settled, s.settledErr = s.state, s.errMsg
		s.state = StateLoading
		s.errMsg = ""
	}
	s.mu.Unlock()

	s.debouncer.Trigger()
	return nil
}

// SetCategory filters by category id; 0 means all categories.
func (s *Session) SetCategory(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	id = max(id, 0)
	if id == s.category {
		return nil
	}
	s.category = id
	s.page = 1
	s.startFetchLocked()
	return nil
}

func (s *Session) SetSort(key SortKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.sort = ParseSortKey(string(key))
	return nil
}

// SetPage stores the requested page. Clamping happens when the snapshot is
// derived, so a page beyond the end shows the last page.
func (s *Session) SetPage(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.page = max(n, 1)
	return nil
}

// Retry refetches with the current parameters.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.startFetchLocked()
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := Sort(s.products, s.sort)
	return Snapshot{
		State:          s.state,
		Error:          s.errMsg,
		Query:          s.query,
		DebouncedQuery: s.debounced,
		CategoryID:     s.category,
		Sort:           s.sort,
		SearchPending:  s.debouncer.Pending(),
		Page:           Paginate(sorted, s.page, s.opts.PageSize),
		Fetches:        s.fetches,
		Seq:            s.seq,
	}
}

// Close stops the debouncer and cancels any in-flight fetch. Results that
// arrive afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.debouncer.Stop()
	s.stop()
}

func (s *Session) applyQuery() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	q := strings.TrimSpace(s.query)
	if q == s.debounced {
		if !s.inflight && s.state == StateLoading {
			s.state, s.errMsg = s.settled, s.settledErr
		}
		return
	}
	s.debounced = q
	s.page = 1
	s.startFetchLocked()
}

func (s *Session) startFetchLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel

	s.seq++
	s.fetches++
	s.inflight = true
	s.state = StateLoading
	s.errMsg = ""

	q := catalogapi.ProductQuery{Title: s.debounced, CategoryID: s.category}
	var delay UXDelay
	if q.Title != "" {
		delay = s.opts.SearchDelay
	}

	go s.fetch(ctx, s.seq, q, delay)
}

func (s *Session) fetch(ctx context.Context, seq uint64, q catalogapi.ProductQuery, delay UXDelay) {
	var (
		products []catalogapi.Product
		err      error
	)
	if err = delay.Wait(ctx); err == nil {
		products, err = s.fetcher.ListProducts(ctx, q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || s.closed {
		s.opts.Metrics.fetch("stale")
		s.opts.Log.Debug("discard stale listing result",
			zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return
	}
	s.inflight = false

	if err != nil {
		s.opts.Metrics.fetch("error")
		s.opts.Log.Warn("listing fetch failed",
			zap.String("title", q.Title), zap.Int("category_id", q.CategoryID), zap.Error(err))
		s.state = StateError
		s.errMsg = LoadErrorMessage
		s.products = nil
		return
	}

	s.opts.Metrics.fetch("success")
	s.state = StateSuccess
	s.products = products
}
