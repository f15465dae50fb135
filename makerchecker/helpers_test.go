package makerchecker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"makerchecker-backend/database"
	"makerchecker-backend/events"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/models"
	"makerchecker-backend/testutil"
)

var (
	alice = models.Ref{Type: models.UserMorph, Key: "u1"}
	bob   = models.Ref{Type: models.UserMorph, Key: "u2"}
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) listen(bus events.Bus) {
	for _, k := range []events.Kind{events.Initiated, events.Approved, events.Rejected, events.Failed} {
		bus.Listen(k, func(e events.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
		})
	}
}

func (r *recorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind events.Kind) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return events.Event{}, false
}

type fixture struct {
	db       *gorm.DB
	store    *database.RequestStore
	registry *makerchecker.Registry
	manager  *makerchecker.Manager
	clock    *clock
	events   *recorder
	logs     *test.Hook
	bus      events.Bus
	log      logrus.FieldLogger
}

func setup(t *testing.T, opts makerchecker.Options) *fixture {
	t.Helper()

	db := testutil.DB(t)
	log, hook := testutil.Logger()

	registry := makerchecker.NewRegistry()
	registry.RegisterEntity(models.ArticleMorph, database.NewEntity[models.Article](db, nil))
	registry.RegisterEntity(models.CustomerMorph, database.NewEntity[models.Customer](db, nil))

	bus := events.NewBus(log)
	rec := &recorder{}
	rec.listen(bus)

	clk := newClock()
	store := database.NewRequestStore(db)
	m := makerchecker.New(store, registry, opts,
		makerchecker.WithLogger(log),
		makerchecker.WithBus(bus),
		makerchecker.WithClock(clk.Now),
	)

	return &fixture{
		db:       db,
		store:    store,
		registry: registry,
		manager:  m,
		clock:    clk,
		events:   rec,
		logs:     hook,
		bus:      bus,
		log:      log,
	}
}

// managerOn builds a second manager sharing the fixture's registry, bus and
// clock but persisting through store.
func (f *fixture) managerOn(store makerchecker.Store, opts makerchecker.Options) *makerchecker.Manager {
	return makerchecker.New(store, f.registry, opts,
		makerchecker.WithLogger(f.log),
		makerchecker.WithBus(f.bus),
		makerchecker.WithClock(f.clock.Now),
	)
}

var errConnectionReset = errors.New("connection reset")

// brokenStore fails Transition calls leaving from, the first n times or
// forever when n is negative.
type brokenStore struct {
	*database.RequestStore
	mu   sync.Mutex
	from models.RequestStatus
	n    int
}

func (s *brokenStore) Transition(ctx context.Context, req *models.Request, from models.RequestStatus) (bool, error) {
	s.mu.Lock()
	broken := from == s.from && s.n != 0
	if broken && s.n > 0 {
		s.n--
	}
	s.mu.Unlock()
	if broken {
		return false, errConnectionReset
	}
	return s.RequestStore.Transition(ctx, req, from)
}

func (f *fixture) createArticle(t *testing.T, title string) *models.Request {
	t.Helper()
	req, err := f.manager.RequestToCreate(models.ArticleMorph, map[string]any{
		"title":       title,
		"description": "B",
	}).MadeBy(alice).Finalize(context.Background())
	require.NoError(t, err)
	return req
}

func (f *fixture) reload(t *testing.T, req *models.Request) *models.Request {
	t.Helper()
	fresh, err := f.store.FindByCode(context.Background(), req.Code)
	require.NoError(t, err)
	return fresh
}

func (f *fixture) logged(level logrus.Level, msg string) bool {
	for _, e := range f.logs.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

func (f *fixture) countArticles(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Article{}).Count(&n).Error)
	return n
}

func (f *fixture) countRequests(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Request{}).Count(&n).Error)
	return n
}

// trace records the order in which hooks and actions run.
type trace struct {
	mu    sync.Mutex
	steps []string
}

func (tr *trace) add(step string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.steps = append(tr.steps, step)
}

func (tr *trace) list() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.steps...)
}

// transfer is a user executable recording every call.
type transfer struct {
	makerchecker.BaseExecutable
	trace    *trace
	uniqueBy []string
	err      error
	panics   bool
}

func (x *transfer) Execute(_ context.Context, req *models.Request) error {
	x.trace.add("execute:" + string(req.Status))
	if x.panics {
		panic("ledger unavailable")
	}
	return x.err
}

func (x *transfer) UniqueBy() []string { return x.uniqueBy }

func (x *transfer) BeforeApproval(_ context.Context, req *models.Request) error {
	x.trace.add("before_approval:" + string(req.Status))
	return nil
}

func (x *transfer) AfterApproval(_ context.Context, req *models.Request) error {
	x.trace.add("after_approval:" + string(req.Status))
	return nil
}

func (x *transfer) BeforeRejection(_ context.Context, req *models.Request) error {
	x.trace.add("before_rejection:" + string(req.Status))
	return nil
}

func (x *transfer) AfterRejection(_ context.Context, req *models.Request) error {
	x.trace.add("after_rejection:" + string(req.Status))
	return nil
}

func (x *transfer) OnFailure(_ context.Context, req *models.Request, cause error) error {
	x.trace.add("on_failure:" + string(req.Status))
	return nil
}
