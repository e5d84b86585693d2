package poller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/menudrop/orderdesk/lifecycle"
	"github.com/menudrop/orderdesk/models"
)

const DefaultReconcileInterval = 30 * time.Second

// OrderAPI is the slice of the HTTP client the staff reconciler needs.
type OrderAPI interface {
	Orders(ctx context.Context) ([]models.Order, error)
	RequestTransition(ctx context.Context, order *models.Order, target models.OrderStatus, extra *lifecycle.Extra) (*models.Order, string, error)
}

type ReconcilerConfig struct {
	Interval time.Duration

	// OnNewOrder fires when a poll sees strictly more pending orders than
	// the previous snapshot held. It receives the new pending count. It does
	// not fire on the initial snapshot, on total-count growth alone, or when
	// orders leave pending.
	OnNewOrder func(pendingCount int)

	// OnPolicyMessage surfaces a server policy notice (an opaque string)
	// before the local snapshot is updated.
	OnPolicyMessage func(message string)

	Logger *logrus.Logger
}

// Reconciler owns the staff dashboard's order snapshot. It swaps in full
// server snapshots rather than diffing incrementally, so orders that changed
// state between polls are never missed, and it tags each poll with a
// sequence number so a stale response can never overwrite a newer snapshot.
type Reconciler struct {
	api   OrderAPI
	cfg   ReconcilerConfig
	sched *Scheduler
	log   *logrus.Logger

	mu          sync.RWMutex
	orders      []models.Order
	initialized bool

	seq     atomic.Int64
	applied atomic.Int64
}

func NewReconciler(api OrderAPI, cfg ReconcilerConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReconcileInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	r := &Reconciler{
		api: api,
		cfg: cfg,
		log: cfg.Logger,
	}
	r.sched = NewScheduler(cfg.Interval, r.Poll, cfg.Logger)
	return r
}

// Run polls until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.sched.Run(ctx)
}

// Refresh asks for an immediate re-poll, used by external refresh signals.
func (r *Reconciler) Refresh() {
	r.sched.Kick()
}

// Poll performs one reconciliation pass. On failure the previous snapshot is
// retained and the error returned for the scheduler to log.
func (r *Reconciler) Poll(ctx context.Context) error {
	seq := r.seq.Inc()

	fetched, err := r.api.Orders(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.applied.Load() {
		r.log.WithField("seq", seq).Debug("discarding stale poll response")
		return nil
	}
	r.applied.Store(seq)

	before := countPending(r.orders)
	after := countPending(fetched)
	wasInitialized := r.initialized

	r.orders = fetched
	r.initialized = true

	if wasInitialized && after > before && r.cfg.OnNewOrder != nil {
		r.log.WithFields(logrus.Fields{"pending_before": before, "pending_after": after}).
			Info("new incoming order detected")
		r.cfg.OnNewOrder(after)
	}
	return nil
}

// Transition validates and issues a status change through the API. The local
// snapshot is only touched after the server acknowledges, and any policy
// message is surfaced first. A successful transition also kicks an immediate
// re-poll.
func (r *Reconciler) Transition(ctx context.Context, order *models.Order, target models.OrderStatus, extra *lifecycle.Extra) (*models.Order, string, error) {
	updated, message, err := r.api.RequestTransition(ctx, order, target, extra)
	if err != nil {
		return nil, "", err
	}

	if message != "" && r.cfg.OnPolicyMessage != nil {
		r.cfg.OnPolicyMessage(message)
	}

	r.mu.Lock()
	r.orders = lifecycle.Apply(r.orders, updated.ID, updated.Status)
	r.mu.Unlock()

	r.Refresh()
	return updated, message, nil
}

// Orders returns a copy of the current snapshot.
func (r *Reconciler) Orders() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, len(r.orders))
	copy(out, r.orders)
	return out
}

func (r *Reconciler) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return countPending(r.orders)
}

func countPending(orders []models.Order) int {
	n := 0
	for _, o := range orders {
		if o.Status == models.StatusPending {
			n++
		}
	}
	return n
}
