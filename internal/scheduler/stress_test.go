package scheduler

import (
	"sync"
	"testing"
	"time"
)

// Many writers re-arming overlapping keys, as a resync racing the call
// bridge would, must leave exactly one pending alarm per key and deliver
// each of them once.
func TestEngineConcurrentRearmCollapsesPerKey(t *testing.T) {
	engine := NewEngine(1024, WithLogger(quietLogger()))
	engine.Start()
	defer engine.Stop()

	const (
		writers = 8
		items   = 150
		rounds  = 5
	)
	kinds := []string{"specific", "daily", "snooze"}

	now := time.Now()
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for i := 0; i < items; i++ {
					a := Alarm{
						Key:       Key{Kind: kinds[i%len(kinds)], Code: int64(i)},
						TriggerAt: now.Add(time.Duration(1500+(w*rounds+r+i)%60) * time.Millisecond),
						Delivery:  Exact,
					}
					if err := engine.Schedule(a); err != nil {
						t.Errorf("schedule %s: %v", a.Key, err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := len(engine.Pending()); got != items {
		t.Fatalf("pending = %d, want one per key (%d)", got, items)
	}

	seen := make(map[Key]int, items)
	deadline := time.After(5 * time.Second)
	for len(seen) < items {
		select {
		case <-deadline:
			t.Fatalf("timeout: delivered %d of %d, dropped %d", len(seen), items, engine.Dropped())
		case a := <-engine.C():
			seen[a.Key]++
			if seen[a.Key] > 1 {
				t.Fatalf("%s delivered twice", a.Key)
			}
		}
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}
