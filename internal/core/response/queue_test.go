package response

import (
	"sync"
	"testing"
)

func rec(value string, at float64) InputRecord {
	return InputRecord{Source: Keyboard, Device: "kbd", Value: value, Time: at}
}

func TestDrainAllPreservesOrderAndEmpties(t *testing.T) {
	q := NewQueue()
	r1, r2, r3 := rec("A", 1), rec("S", 2), rec("K", 3)
	q.Push(r1)
	q.Push(r2)
	q.Push(r3)

	got := q.DrainAll()
	want := []InputRecord{r1, r2, r3}
	if len(got) != len(want) {
		t.Fatalf("DrainAll() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DrainAll()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after drain, want 0", q.Len())
	}
	if again := q.DrainAll(); len(again) != 0 {
		t.Fatalf("second DrainAll() = %v, want empty", again)
	}
}

func TestClearThenPush(t *testing.T) {
	q := NewQueue()
	q.Push(rec("A", 1))
	q.Push(rec("S", 2))
	q.Clear()

	r := rec("K", 3)
	q.Push(r)
	got := q.DrainAll()
	if len(got) != 1 || got[0] != r {
		t.Fatalf("DrainAll() = %v, want [%v]", got, r)
	}
}

func TestConcurrentPushesLoseNothing(t *testing.T) {
	const producers = 8
	const perProducer = 500

	q := NewQueue()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(InputRecord{Source: Keyboard, Device: string(rune('a' + p)), Value: "A", Time: float64(i)})
			}
		}(p)
	}

	seen := make(map[InputRecord]int)
	lastTime := make(map[string]float64)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	collect := func(records []InputRecord) {
		for _, r := range records {
			seen[r]++
			if last, ok := lastTime[r.Device]; ok && r.Time <= last {
				t.Errorf("device %s out of order: %v after %v", r.Device, r.Time, last)
			}
			lastTime[r.Device] = r.Time
		}
	}

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		collect(q.DrainAll())
	}
	collect(q.DrainAll())

	if len(seen) != producers*perProducer {
		t.Fatalf("drained %d distinct records, want %d", len(seen), producers*perProducer)
	}
	for r, n := range seen {
		if n != 1 {
			t.Fatalf("record %v drained %d times", r, n)
		}
	}
}
