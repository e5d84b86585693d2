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

	"github.com/menudrop/orderdesk/lifecycle"
	"github.com/menudrop/orderdesk/models"
)

type fakeOrderAPI struct {
	mu        sync.Mutex
	snapshots [][]models.Order
	next      int
	err       error

	transitionMessage string
	transitionErr     error
}

func (f *fakeOrderAPI) Orders(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.next >= len(f.snapshots) {
		return f.snapshots[len(f.snapshots)-1], nil
	}
	snap := f.snapshots[f.next]
	f.next++
	return snap, nil
}

func (f *fakeOrderAPI) RequestTransition(ctx context.Context, order *models.Order, target models.OrderStatus, extra *lifecycle.Extra) (*models.Order, string, error) {
	if err := lifecycle.Validate(order, target, extra); err != nil {
		return nil, "", err
	}
	if f.transitionErr != nil {
		return nil, "", f.transitionErr
	}
	updated := *order
	updated.Status = target
	return &updated, f.transitionMessage, nil
}

func pendingOrder() models.Order {
	return models.Order{ID: uuid.New(), Status: models.StatusPending, OrderType: models.OrderTypeDineIn}
}

func newTestReconciler(api OrderAPI, onNew func(int), onMsg func(string)) *Reconciler {
	return NewReconciler(api, ReconcilerConfig{
		OnNewOrder:      onNew,
		OnPolicyMessage: onMsg,
	})
}

func TestNotifiesWhenPendingCountGrows(t *testing.T) {
	first := pendingOrder()
	api := &fakeOrderAPI{snapshots: [][]models.Order{
		{first},
		{first, pendingOrder()},
	}}

	var fired []int
	r := newTestReconciler(api, func(n int) { fired = append(fired, n) }, nil)

	require.NoError(t, r.Poll(context.Background()))
	assert.Empty(t, fired, "initial snapshot must not alert")

	require.NoError(t, r.Poll(context.Background()))
	assert.Equal(t, []int{2}, fired, "second poll sees one more pending order")
}

func TestDoesNotNotifyWhenOrderLeavesPending(t *testing.T) {
	o := pendingOrder()
	moved := o
	moved.Status = models.StatusPreparing
	api := &fakeOrderAPI{snapshots: [][]models.Order{
		{o},
		{moved},
	}}

	fired := 0
	r := newTestReconciler(api, func(int) { fired++ }, nil)

	require.NoError(t, r.Poll(context.Background()))
	require.NoError(t, r.Poll(context.Background()))
	assert.Zero(t, fired)
}

func TestDoesNotNotifyOnTotalGrowthAlone(t *testing.T) {
	o := pendingOrder()
	imported := models.Order{ID: uuid.New(), Status: models.StatusPreparing, OrderType: models.OrderTypeTakeOut}
	api := &fakeOrderAPI{snapshots: [][]models.Order{
		{o},
		{o, imported},
	}}

	fired := 0
	r := newTestReconciler(api, func(int) { fired++ }, nil)

	require.NoError(t, r.Poll(context.Background()))
	require.NoError(t, r.Poll(context.Background()))
	assert.Zero(t, fired, "an order appearing outside pending must not alert")
}

func TestPollFailureKeepsPreviousSnapshot(t *testing.T) {
	o := pendingOrder()
	api := &fakeOrderAPI{snapshots: [][]models.Order{{o}}}

	r := newTestReconciler(api, nil, nil)
	require.NoError(t, r.Poll(context.Background()))
	require.Len(t, r.Orders(), 1)

	api.mu.Lock()
	api.err = errors.New("connection refused")
	api.mu.Unlock()

	err := r.Poll(context.Background())
	require.Error(t, err)
	assert.Len(t, r.Orders(), 1, "transient failure must not clear the view")
	assert.Equal(t, 1, r.PendingCount())
}

func TestTransitionAppliesAfterAckAndSurfacesMessage(t *testing.T) {
	o := pendingOrder()
	api := &fakeOrderAPI{
		snapshots:         [][]models.Order{{o}},
		transitionMessage: "cancelling now will trigger a refund",
	}

	var events []string
	r := newTestReconciler(api, nil, func(msg string) {
		events = append(events, "message:"+msg)
	})

	require.NoError(t, r.Poll(context.Background()))

	updated, message, err := r.Transition(context.Background(), &o, models.StatusPreparing, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, updated.Status)
	assert.Equal(t, "cancelling now will trigger a refund", message)
	assert.Equal(t, []string{"message:cancelling now will trigger a refund"}, events)

	// The local snapshot reflects the acknowledged status.
	orders := r.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusPreparing, orders[0].Status)
}

func TestTransitionRejectionLeavesSnapshotUntouched(t *testing.T) {
	o := pendingOrder()
	api := &fakeOrderAPI{snapshots: [][]models.Order{{o}}}

	r := newTestReconciler(api, nil, nil)
	require.NoError(t, r.Poll(context.Background()))

	_, _, err := r.Transition(context.Background(), &o, models.StatusCompleted, nil)

	var invalid *lifecycle.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))

	orders := r.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusPending, orders[0].Status)
}

// gatedOrderAPI blocks the first Orders call until released, so a test can
// force an older poll's response to arrive after a newer one was applied.
type gatedOrderAPI struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	first   []models.Order
	rest    []models.Order
}

func (g *gatedOrderAPI) Orders(ctx context.Context) ([]models.Order, error) {
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

func (g *gatedOrderAPI) RequestTransition(ctx context.Context, order *models.Order, target models.OrderStatus, extra *lifecycle.Extra) (*models.Order, string, error) {
	return order, "", nil
}

func (g *gatedOrderAPI) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestStaleSnapshotIsDiscarded(t *testing.T) {
	o := pendingOrder()
	moved := o
	moved.Status = models.StatusPreparing

	api := &gatedOrderAPI{
		release: make(chan struct{}),
		first:   []models.Order{o},
		rest:    []models.Order{moved},
	}
	r := newTestReconciler(api, nil, nil)

	// Poll 1 takes its sequence number, then stalls in flight.
	done := make(chan error, 1)
	go func() { done <- r.Poll(context.Background()) }()
	require.Eventually(t, func() bool { return api.callCount() == 1 },
		2*time.Second, time.Millisecond, "first poll never reached the API")

	// Poll 2 completes while poll 1 is still in flight.
	require.NoError(t, r.Poll(context.Background()))

	close(api.release)
	require.NoError(t, <-done)

	orders := r.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusPreparing, orders[0].Status,
		"the late response from the older poll must not overwrite the newer snapshot")
}

func TestTransitionNetworkFailureLeavesSnapshotUntouched(t *testing.T) {
	o := pendingOrder()
	api := &fakeOrderAPI{
		snapshots:     [][]models.Order{{o}},
		transitionErr: errors.New("connection reset"),
	}

	r := newTestReconciler(api, nil, nil)
	require.NoError(t, r.Poll(context.Background()))

	_, _, err := r.Transition(context.Background(), &o, models.StatusPreparing, nil)
	require.Error(t, err)

	orders := r.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusPending, orders[0].Status, "the core never assumes success")
}
