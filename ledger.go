package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coopcore/ledger/id"
	"github.com/coopcore/ledger/party"
	"github.com/coopcore/ledger/plugin"
	"github.com/coopcore/ledger/store"
	"github.com/coopcore/ledger/types"
)

// Ledger is the main obligation engine. All mutations on a party's
// postings run under that party's exclusive lock so the balance_after
// chain stays consistent.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	locks   *lockManager

	// Configuration
	clock            func() time.Time
	lockTimeout      time.Duration
	paymentTolerance int64 // smallest currency units of acceptable overpayment
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:            s,
		plugins:          plugin.NewRegistry(),
		logger:           slog.Default(),
		locks:            newLockManager(),
		clock:            time.Now,
		lockTimeout:      5 * time.Second,
		paymentTolerance: 1,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPaymentTolerance sets how many smallest currency units a payment may
// exceed the party's open obligations by before it is refused. The default
// is 1, absorbing sale-total rounding.
func WithPaymentTolerance(units int64) Option {
	return func(l *Ledger) {
		l.paymentTolerance = units
	}
}

// WithLockTimeout sets how long a mutation waits for a party's lock.
func WithLockTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.lockTimeout = d
	}
}

// WithClock injects the reference time source. Reports and default posting
// dates use it; tests pass a fixed clock for determinism.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started",
		"payment_tolerance", l.paymentTolerance,
		"lock_timeout", l.lockTimeout,
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())
	return l.store.Close()
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Store returns the underlying store for direct access.
func (l *Ledger) Store() store.Store { return l.store }

// ──────────────────────────────────────────────────
// Party Management
// ──────────────────────────────────────────────────

// CreateParty registers a customer or supplier.
func (l *Ledger) CreateParty(ctx context.Context, p *party.Party) error {
	if p.ID == (id.PartyID{}) {
		p.ID = id.NewPartyID()
	}
	p.Entity = types.NewEntity()
	if p.OutstandingTotal.Currency == "" {
		p.OutstandingTotal = types.PHP(0)
	}
	if p.OutstandingTotal.Amount != 0 {
		return ValidationError{Field: "outstanding_total", Message: "new parties start at zero"}
	}

	return l.store.CreateParty(ctx, p)
}

// GetParty retrieves a party by ID.
func (l *Ledger) GetParty(ctx context.Context, partyID id.PartyID) (*party.Party, error) {
	return l.store.GetParty(ctx, partyID)
}

// ListParties lists a tenant's parties.
func (l *Ledger) ListParties(ctx context.Context, tenantID string, opts party.ListOpts) ([]*party.Party, error) {
	return l.store.ListParties(ctx, tenantID, opts)
}

// SetCreditLimit updates a party's credit limit. Zero removes the limit.
func (l *Ledger) SetCreditLimit(ctx context.Context, partyID id.PartyID, limit types.Money) error {
	unlock, err := l.lockParty(ctx, partyID)
	if err != nil {
		return err
	}
	defer unlock()

	p, err := l.store.GetParty(ctx, partyID)
	if err != nil {
		return err
	}
	p.CreditLimit = limit
	p.Touch()
	return l.store.UpdateParty(ctx, p)
}

// ──────────────────────────────────────────────────
// Sequences
// ──────────────────────────────────────────────────

// NextSequence returns the next document number for a tenant-scoped series
// (sale numbers, purchase order numbers). Increments are exclusive: no two
// callers observe the same value.
func (l *Ledger) NextSequence(ctx context.Context, tenantID, scope string) (int64, error) {
	return l.store.NextSequence(ctx, tenantID, scope)
}

// ──────────────────────────────────────────────────
// Mutation locks
// ──────────────────────────────────────────────────

// lockManager hands out one semaphore per lock key: a party ID for
// receivable postings, an account ID for savings, loan, share and wallet
// mutations. Keys are never evicted; the population is bounded by the
// entity tables.
type lockManager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[string]chan struct{})}
}

func (m *lockManager) get(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[key] = ch
	}
	return ch
}

// lockKey acquires the exclusive lock for the key, waiting up to the
// configured timeout. The returned func releases it. Every facade
// read-modify-write runs its guard checks and its store write under the
// lock of the entity it mutates.
func (l *Ledger) lockKey(ctx context.Context, key string) (func(), error) {
	ch := l.locks.get(key)

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-time.After(l.lockTimeout):
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lockParty acquires the party's exclusive lock.
func (l *Ledger) lockParty(ctx context.Context, partyID id.PartyID) (func(), error) {
	return l.lockKey(ctx, partyID.String())
}
