package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/rickgao/lastprice/internal/model"
)

func TestGrowableBuffer_FIFOAcrossGrowth(t *testing.T) {
	buf := NewGrowableBuffer[int64](4)

	for i := int64(0); i < 100; i++ {
		if !buf.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	stats := buf.Stats()
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.ResizeCount < 3 {
		t.Errorf("ResizeCount = %d, expected at least 3 resizes", stats.ResizeCount)
	}

	for i := int64(0); i < 100; i++ {
		got, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if got != i {
			t.Errorf("received %d, want %d", got, i)
		}
	}
	if _, ok := buf.TryReceive(); ok {
		t.Error("TryReceive() on empty buffer returned true")
	}
}

func TestGrowableBuffer_WrapAroundThenGrow(t *testing.T) {
	buf := NewGrowableBuffer[int](10)

	// Move head forward so the next writes wrap.
	for i := 0; i < 5; i++ {
		buf.Send(i)
	}
	for i := 0; i < 5; i++ {
		buf.TryReceive()
	}

	for i := 0; i < 20; i++ {
		buf.Send(100 + i)
	}
	for i := 0; i < 20; i++ {
		got, ok := buf.TryReceive()
		if !ok || got != 100+i {
			t.Fatalf("item %d = %d (ok=%v), want %d", i, got, ok, 100+i)
		}
	}
}

func TestGrowableBuffer_CloseDrainsThenStops(t *testing.T) {
	buf := NewGrowableBuffer[model.Completion](4)
	buf.Send(model.Completion{BatchID: 1})
	buf.Send(model.Completion{BatchID: 2})

	buf.Close()

	if buf.Send(model.Completion{BatchID: 3}) {
		t.Error("Send after Close returned true")
	}
	for _, want := range []int64{1, 2} {
		c, ok := buf.Receive()
		if !ok || c.BatchID != want {
			t.Fatalf("Receive() = %d (ok=%v), want %d", c.BatchID, ok, want)
		}
	}
	if _, ok := buf.Receive(); ok {
		t.Error("Receive() on closed empty buffer returned true")
	}
}

func TestGrowableBuffer_CloseUnblocksReceive(t *testing.T) {
	buf := NewGrowableBuffer[int](1)

	done := make(chan bool, 1)
	go func() {
		_, ok := buf.Receive()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	buf.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Receive() returned true after Close on empty buffer")
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not unblock on Close")
	}
}

func TestGrowableBuffer_ConcurrentSendReceive(t *testing.T) {
	buf := NewGrowableBuffer[int](8)

	const producers = 4
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				buf.Send(i)
			}
		}()
	}

	received := make(chan int, 1)
	go func() {
		n := 0
		for {
			if _, ok := buf.Receive(); !ok {
				break
			}
			n++
		}
		received <- n
	}()

	wg.Wait()
	buf.Close()

	select {
	case n := <-received:
		if n != producers*perProducer {
			t.Errorf("received %d, want %d", n, producers*perProducer)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not finish")
	}
}

func TestNewGrowableBuffer_MinCapacity(t *testing.T) {
	buf := NewGrowableBuffer[int](0)

	if !buf.Send(1) {
		t.Fatal("Send on zero-capacity buffer failed")
	}
	if got, ok := buf.TryReceive(); !ok || got != 1 {
		t.Errorf("TryReceive() = %d, %v", got, ok)
	}
}
