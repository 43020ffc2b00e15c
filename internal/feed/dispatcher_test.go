package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/lastprice/internal/model"
)

type recordingSink struct {
	name string
	err  error

	mu  sync.Mutex
	got []int64
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) HandleCompletion(ctx context.Context, c model.Completion) error {
	s.mu.Lock()
	s.got = append(s.got, c.BatchID)
	s.mu.Unlock()
	return s.err
}

func (s *recordingSink) batchIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.got...)
}

func TestDispatcher_DeliversInOrderToAllSinks(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(2, []Sink{failing, ok}, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := int64(1); i <= 5; i++ {
		d.Notify(model.Completion{BatchID: i})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	want := []int64{1, 2, 3, 4, 5}
	for _, sink := range []*recordingSink{failing, ok} {
		got := sink.batchIDs()
		if len(got) != len(want) {
			t.Fatalf("%s received %v, want %v", sink.name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s[%d] = %d, want %d", sink.name, i, got[i], want[i])
			}
		}
	}

	stats := d.Stats()
	if stats.Delivered != 5 {
		t.Errorf("Delivered = %d, want 5", stats.Delivered)
	}
	if stats.Failed != 5 {
		t.Errorf("Failed = %d, want 5", stats.Failed)
	}
}

func TestDispatcher_NotifyAfterStopDrops(t *testing.T) {
	sink := &recordingSink{name: "sink"}
	d := NewDispatcher(4, []Sink{sink}, nil)
	d.Start(context.Background())
	d.Stop(context.Background())

	d.Notify(model.Completion{BatchID: 9})

	if got := d.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
	if len(sink.batchIDs()) != 0 {
		t.Error("sink received completion after Stop")
	}
}
