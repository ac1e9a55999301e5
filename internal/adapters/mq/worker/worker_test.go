package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/delhihouse/internal/adapters/mq/queue"
	"github.com/okian/delhihouse/internal/adapters/mq/worker"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockStore struct {
	mu       sync.Mutex
	leads    []model.Lead
	failures map[string]int
	calls    int32
}

func newMockStore() *mockStore {
	return &mockStore{failures: make(map[string]int)}
}

func (m *mockStore) Create(_ context.Context, l model.Lead) (model.Lead, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[l.Email] > 0 {
		m.failures[l.Email]--
		return model.Lead{}, errors.New("database is locked")
	}
	l.ID = fmt.Sprintf("lead-%d", len(m.leads)+1)
	m.leads = append(m.leads, l)
	return l, nil
}

func (m *mockStore) stored() []model.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Lead(nil), m.leads...)
}

func lead(email string) queue.Item {
	return queue.Item{Lead: model.Lead{Name: "Guest", Email: email}, Token: email, EnqueuedAt: time.Now()}
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker reading a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		store := newMockStore()

		var failed []string
		var mu sync.Mutex
		w := worker.NewInMemoryWorker(q, store,
			worker.WithRetries(1, time.Millisecond),
			worker.OnFailure(func(it queue.Item, _ error) {
				mu.Lock()
				failed = append(failed, it.Token)
				mu.Unlock()
			}))

		convey.Convey("It persists every item and stops when the queue closes", func() {
			ctx := context.Background()
			convey.So(q.Enqueue(ctx, lead("a@example.com")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, lead("b@example.com")), convey.ShouldBeNil)
			_ = q.Close()

			w.Run(ctx)
			convey.So(len(store.stored()), convey.ShouldEqual, 2)
			convey.So(failed, convey.ShouldBeEmpty)
		})

		convey.Convey("A transient failure is retried", func() {
			store.failures["a@example.com"] = 1
			ctx := context.Background()
			convey.So(q.Enqueue(ctx, lead("a@example.com")), convey.ShouldBeNil)
			_ = q.Close()

			w.Run(ctx)
			convey.So(len(store.stored()), convey.ShouldEqual, 1)
			convey.So(atomic.LoadInt32(&store.calls), convey.ShouldEqual, 2)
		})

		convey.Convey("A persistent failure is reported once retries run out", func() {
			store.failures["a@example.com"] = 5
			ctx := context.Background()
			convey.So(q.Enqueue(ctx, lead("a@example.com")), convey.ShouldBeNil)
			_ = q.Close()

			w.Run(ctx)
			convey.So(store.stored(), convey.ShouldBeEmpty)
			convey.So(failed, convey.ShouldResemble, []string{"a@example.com"})
		})

		convey.Convey("Canceling the context stops the worker", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)
			cancel()
			<-w.Done()
			_ = q.Close()
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		store := newMockStore()
		p := worker.NewPool(3, q, store, worker.WithMetricsInterval(time.Millisecond))
		ctx := context.Background()
		p.Start(ctx)

		convey.Convey("Shutdown drains everything already queued", func() {
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, lead(fmt.Sprintf("g%d@example.com", i))), convey.ShouldBeNil)
			}
			convey.So(p.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(len(store.stored()), convey.ShouldEqual, 50)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})
	})
}
