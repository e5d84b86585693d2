package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/menudrop/orderdesk/client"
	"github.com/menudrop/orderdesk/models"
)

const DefaultTrackInterval = 10 * time.Second

// PublicOrderAPI is the slice of the HTTP client the customer tracker needs.
type PublicOrderAPI interface {
	PublicOrder(ctx context.Context, orderID string) (*models.Order, error)
}

type TrackerState int

const (
	// TrackerLoading means no poll has completed yet.
	TrackerLoading TrackerState = iota
	// TrackerLive means the snapshot reflects the last successful poll.
	TrackerLive
	// TrackerNotFound means the order id does not resolve; the view shows a
	// dedicated screen rather than a generic failure.
	TrackerNotFound
	// TrackerUnavailable means the last poll failed in transit; the previous
	// snapshot, if any, is retained and shown.
	TrackerUnavailable
)

// Tracker polls a single order for the public confirmation page.
type Tracker struct {
	api     PublicOrderAPI
	orderID string
	sched   *Scheduler
	log     *logrus.Logger

	mu    sync.RWMutex
	order *models.Order
	state TrackerState

	seq     atomic.Int64
	applied atomic.Int64
}

func NewTracker(api PublicOrderAPI, orderID string, interval time.Duration, log *logrus.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultTrackInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Tracker{
		api:     api,
		orderID: orderID,
		log:     log,
	}
	t.sched = NewScheduler(interval, t.Poll, log)
	return t
}

func (t *Tracker) Run(ctx context.Context) {
	t.sched.Run(ctx)
}

func (t *Tracker) Refresh() {
	t.sched.Kick()
}

// Poll fetches the order once and updates the view state. Stale responses
// are discarded by sequence number.
func (t *Tracker) Poll(ctx context.Context) error {
	seq := t.seq.Inc()

	order, err := t.api.PublicOrder(ctx, t.orderID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if seq <= t.applied.Load() {
		return nil
	}
	t.applied.Store(seq)

	if err != nil {
		var notFound *client.NotFoundError
		if errors.As(err, &notFound) {
			t.state = TrackerNotFound
			return nil
		}
		// Transient failure: flag it, keep whatever snapshot we had, and
		// retry next tick.
		t.state = TrackerUnavailable
		return err
	}

	t.order = order
	t.state = TrackerLive
	return nil
}

// Snapshot returns the last seen order (possibly nil) and the view state.
func (t *Tracker) Snapshot() (*models.Order, TrackerState) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.order, t.state
}

// ProgressStep maps a backend status onto the customer-visible 4-step
// progress bar. Cancelled orders have no step and render as their own
// terminal state; ok is false for them and for unknown statuses.
func ProgressStep(status models.OrderStatus) (step int, ok bool) {
	switch status {
	case models.StatusPending:
		return 0, true
	case models.StatusPreparing, models.StatusOutForDelivery:
		return 1, true
	case models.StatusReady:
		return 2, true
	case models.StatusCompleted:
		return 3, true
	default:
		return 0, false
	}
}
