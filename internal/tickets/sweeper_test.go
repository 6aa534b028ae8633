package tickets

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCanceller struct {
	mu        sync.Mutex
	pending   []string
	cancelled map[string]bool

	inFlight    int32
	maxInFlight int32
}

func newFakeCanceller(ids ...string) *fakeCanceller {
	return &fakeCanceller{pending: ids, cancelled: make(map[string]bool)}
}

func (f *fakeCanceller) ExpiredOrderIDs(_ context.Context, _ time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, id := range f.pending {
		if f.cancelled[id] {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCanceller) CancelEventOrder(_ context.Context, orderID, _ string) (*Order, bool, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&f.maxInFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&f.maxInFlight, cur, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelled[orderID] {
		return &Order{ID: orderID, Status: OrderCancelled}, false, nil
	}
	f.cancelled[orderID] = true
	return &Order{ID: orderID, Status: OrderCancelled}, true, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	orders []string
}

func (f *fakeNotifier) OrderCancelled(o *Order, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o.ID)
}

func TestSweeper_CancelsBacklogInPages(t *testing.T) {
	ids := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		ids = append(ids, string(rune('a'+i)))
	}
	repo := newFakeCanceller(ids...)
	notifier := &fakeNotifier{}
	s := &Sweeper{Repo: repo, Notifier: notifier, PageSize: 10, Parallelism: 4}

	n, err := s.CancelExpiredOrders(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Len(t, repo.cancelled, 25)
	assert.Len(t, notifier.orders, 25)
	assert.LessOrEqual(t, repo.maxInFlight, int32(4))
}

func TestSweeper_EmptyBacklog(t *testing.T) {
	s := &Sweeper{Repo: newFakeCanceller(), PageSize: 10, Parallelism: 2}

	n, err := s.CancelExpiredOrders(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeper_NoOpCancellationsNotCounted(t *testing.T) {
	repo := newFakeCanceller("x", "y")
	repo.cancelled["x"] = true // already cancelled by a concurrent sweep
	notifier := &fakeNotifier{}
	s := &Sweeper{Repo: repo, Notifier: notifier, PageSize: 10, Parallelism: 1}

	n, err := s.CancelExpiredOrders(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"y"}, notifier.orders)
}
