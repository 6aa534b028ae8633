package tickets

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type orderCanceller interface {
	ExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	CancelEventOrder(ctx context.Context, orderID, reason string) (*Order, bool, error)
}

type cancelNotifier interface {
	OrderCancelled(o *Order, reason string)
}

// Sweeper eventually cancels all expired PENDING orders: it claims a page of
// candidates, cancels them with bounded parallelism, and repeats until the
// backlog is drained. Per-order cancellation stays idempotent, so overlapping
// sweeps are safe.
type Sweeper struct {
	Repo        orderCanceller
	Notifier    cancelNotifier
	PageSize    int
	Parallelism int
	Interval    time.Duration
}

const sweepReason = "order expired"

// Run ticks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("sweeper started: interval=%s page=%d parallelism=%d", interval, s.PageSize, s.Parallelism)
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.CancelExpiredOrders(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("sweep: %v", err)
			}
			if n > 0 {
				log.Printf("sweep: cancelled %d expired orders", n)
			}
		}
	}
}

// CancelExpiredOrders drains the current backlog and returns the number of
// orders this sweep cancelled.
func (s *Sweeper) CancelExpiredOrders(ctx context.Context, now time.Time) (int, error) {
	page := s.PageSize
	if page <= 0 {
		page = 100
	}
	par := s.Parallelism
	if par <= 0 {
		par = 1
	}

	var cancelled int64
	for {
		ids, err := s.Repo.ExpiredOrderIDs(ctx, now, page)
		if err != nil {
			return int(cancelled), err
		}
		if len(ids) == 0 {
			return int(cancelled), nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(par)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				o, changed, err := s.Repo.CancelEventOrder(gctx, id, sweepReason)
				if err != nil {
					return err
				}
				if changed {
					atomic.AddInt64(&cancelled, 1)
					if s.Notifier != nil {
						s.Notifier.OrderCancelled(o, sweepReason)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return int(cancelled), err
		}
		if len(ids) < page {
			return int(cancelled), nil
		}
	}
}
