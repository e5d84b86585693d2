package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menudrop/orderdesk/client"
	"github.com/menudrop/orderdesk/models"
)

type fakePublicAPI struct {
	mu     sync.Mutex
	orders []*models.Order
	errs   []error
	next   int
}

func (f *fakePublicAPI) PublicOrder(ctx context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.next
	if i >= len(f.orders) {
		i = len(f.orders) - 1
	}
	f.next++
	return f.orders[i], f.errs[i]
}

func TestProgressStepMapping(t *testing.T) {
	cases := []struct {
		status models.OrderStatus
		step   int
		ok     bool
	}{
		{models.StatusPending, 0, true},
		{models.StatusPreparing, 1, true},
		{models.StatusOutForDelivery, 1, true},
		{models.StatusReady, 2, true},
		{models.StatusCompleted, 3, true},
		{models.StatusCancelled, 0, false},
		{"bogus", 0, false},
	}

	for _, tc := range cases {
		step, ok := ProgressStep(tc.status)
		assert.Equalf(t, tc.ok, ok, "status %q", tc.status)
		if tc.ok {
			assert.Equalf(t, tc.step, step, "status %q", tc.status)
		}
	}
}

func TestTrackerLifecycle(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: models.StatusPreparing, OrderType: models.OrderTypeTakeOut}
	api := &fakePublicAPI{
		orders: []*models.Order{order, nil, nil},
		errs: []error{
			nil,
			&client.NetworkError{Op: "GET /public-order", Err: errors.New("timeout")},
			&client.NotFoundError{Resource: "/public-order"},
		},
	}

	tr := NewTracker(api, order.ID.String(), DefaultTrackInterval, nil)

	got, state := tr.Snapshot()
	assert.Nil(t, got)
	assert.Equal(t, TrackerLoading, state)

	require.NoError(t, tr.Poll(context.Background()))
	got, state = tr.Snapshot()
	require.NotNil(t, got)
	assert.Equal(t, TrackerLive, state)
	assert.Equal(t, models.StatusPreparing, got.Status)

	// Transient failure: previous snapshot is retained and the error is
	// reported for logging, not surfaced as a terminal state.
	err := tr.Poll(context.Background())
	require.Error(t, err)
	got, state = tr.Snapshot()
	require.NotNil(t, got, "network failure must not clear the last seen order")
	assert.Equal(t, TrackerUnavailable, state)

	// Not-found is its own terminal screen, distinct from network failure.
	require.NoError(t, tr.Poll(context.Background()))
	_, state = tr.Snapshot()
	assert.Equal(t, TrackerNotFound, state)
}

// gatedPublicAPI stalls the first fetch so its response arrives after a
// newer poll has been applied.
type gatedPublicAPI struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	first   *models.Order
	rest    *models.Order
}

func (g *gatedPublicAPI) PublicOrder(ctx context.Context, orderID string) (*models.Order, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	if call == 1 {
		<-g.release
		return g.first, nil
	}
	return g.rest, nil
}

func (g *gatedPublicAPI) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestTrackerDiscardsStaleResponse(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: models.StatusPending, OrderType: models.OrderTypeDineIn}
	moved := *order
	moved.Status = models.StatusPreparing

	api := &gatedPublicAPI{
		release: make(chan struct{}),
		first:   order,
		rest:    &moved,
	}
	tr := NewTracker(api, order.ID.String(), 0, nil)

	done := make(chan error, 1)
	go func() { done <- tr.Poll(context.Background()) }()
	require.Eventually(t, func() bool { return api.callCount() == 1 },
		2*time.Second, time.Millisecond, "first poll never reached the API")

	require.NoError(t, tr.Poll(context.Background()))

	close(api.release)
	require.NoError(t, <-done)

	got, state := tr.Snapshot()
	require.NotNil(t, got)
	assert.Equal(t, TrackerLive, state)
	assert.Equal(t, models.StatusPreparing, got.Status,
		"the older poll's late response must not roll the progress bar back")
}

func TestTrackerNetworkFailureBeforeFirstSnapshot(t *testing.T) {
	api := &fakePublicAPI{
		orders: []*models.Order{nil},
		errs:   []error{&client.NetworkError{Op: "GET /public-order", Err: errors.New("timeout")}},
	}

	tr := NewTracker(api, uuid.NewString(), 0, nil)
	require.Error(t, tr.Poll(context.Background()))

	got, state := tr.Snapshot()
	assert.Nil(t, got)
	assert.Equal(t, TrackerUnavailable, state, "a failed first poll must show the failure screen, not load forever")
}

func TestTrackerNotFoundOnFirstPoll(t *testing.T) {
	api := &fakePublicAPI{
		orders: []*models.Order{nil},
		errs:   []error{&client.NotFoundError{Resource: "/public-order"}},
	}

	tr := NewTracker(api, uuid.NewString(), 0, nil)
	require.NoError(t, tr.Poll(context.Background()))

	got, state := tr.Snapshot()
	assert.Nil(t, got)
	assert.Equal(t, TrackerNotFound, state)
}
