package location

import (
	"context"
	"errors"
	"supmap-guidance/internal/geo"
	"sync"
	"time"
)

var ErrUnavailable = errors.New("location unavailable")

// Fix is one location reading from the device.
type Fix struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Heading    *float64       `json:"heading,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Source is a subscribable stream of fixes with a one-shot current location query.
type Source interface {
	Subscribe(fn func(Fix)) (unsubscribe func())
	Current(ctx context.Context) (Fix, error)
}

// Feed is a Source fed by Publish. Subscribers are called synchronously, in
// subscription order, on the publishing goroutine.
type Feed struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]func(Fix)
	order   []int
	last    *Fix
	waiters []chan Fix
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(Fix))}
}

func (f *Feed) Subscribe(fn func(Fix)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.order = append(f.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			for i, v := range f.order {
				if v == id {
					f.order = append(f.order[:i], f.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (f *Feed) Publish(fix Fix) {
	f.mu.Lock()
	f.last = &fix
	waiters := f.waiters
	f.waiters = nil
	subs := make([]func(Fix), 0, len(f.order))
	for _, id := range f.order {
		subs = append(subs, f.subs[id])
	}
	f.mu.Unlock()

	for _, w := range waiters {
		w <- fix
	}
	for _, fn := range subs {
		fn(fix)
	}
}

// Current returns the latest fix, or waits for the next one until ctx is done.
func (f *Feed) Current(ctx context.Context) (Fix, error) {
	f.mu.Lock()
	if f.last != nil {
		fix := *f.last
		f.mu.Unlock()
		return fix, nil
	}
	w := make(chan Fix, 1)
	f.waiters = append(f.waiters, w)
	f.mu.Unlock()

	select {
	case fix := <-w:
		return fix, nil
	case <-ctx.Done():
		f.removeWaiter(w)
		return Fix{}, errors.Join(ErrUnavailable, ctx.Err())
	}
}

func (f *Feed) removeWaiter(w chan Fix) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, v := range f.waiters {
		if v == w {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}
