package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// inFlightProbe records the peak number of concurrently running workers.
type inFlightProbe struct {
	current atomic.Int32
	peak    atomic.Int32
}

func (p *inFlightProbe) enter() {
	n := p.current.Add(1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			return
		}
	}
}

func (p *inFlightProbe) leave() { p.current.Add(-1) }

func TestRunRespectsWidth(t *testing.T) {
	tasks := make([]int, 10)
	for i := range tasks {
		tasks[i] = i
	}

	var probe inFlightProbe
	var mu sync.Mutex
	seen := map[int]int{}

	stats := Run(context.Background(), tasks, 3, func(_ context.Context, task int) error {
		probe.enter()
		defer probe.leave()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		seen[task]++
		mu.Unlock()
		return nil
	})

	if peak := probe.peak.Load(); peak > 3 {
		t.Errorf("peak in-flight = %d, want <= 3", peak)
	}
	if stats.Completed != 10 || stats.Failed != 0 || stats.Skipped != 0 {
		t.Errorf("Stats = %+v, want 10 completed", stats)
	}
	for _, task := range tasks {
		if seen[task] != 1 {
			t.Errorf("task %d ran %d times, want 1", task, seen[task])
		}
	}
}

func TestRunReachesWidth(t *testing.T) {
	tasks := make([]int, 6)
	var probe inFlightProbe
	release := make(chan struct{})

	done := make(chan Stats)
	go func() {
		done <- Run(context.Background(), tasks, 3, func(_ context.Context, _ int) error {
			probe.enter()
			defer probe.leave()
			<-release
			return nil
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for probe.current.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := probe.current.Load(); got != 3 {
		t.Errorf("in-flight before release = %d, want 3", got)
	}
	close(release)

	if stats := <-done; stats.Completed != 6 {
		t.Errorf("Completed = %d, want 6", stats.Completed)
	}
}

func TestRunErrorsDoNotStopPool(t *testing.T) {
	tasks := []int{0, 1, 2, 3, 4, 5, 6}
	var ran atomic.Int32

	stats := Run(context.Background(), tasks, 3, func(_ context.Context, task int) error {
		ran.Add(1)
		if task%2 == 0 {
			return errors.New("upstream 500")
		}
		return nil
	})

	if ran.Load() != 7 {
		t.Errorf("ran %d tasks, want 7", ran.Load())
	}
	if stats.Failed != 4 || stats.Completed != 3 {
		t.Errorf("Stats = %+v, want 4 failed, 3 completed", stats)
	}
}

func TestRunCanceledSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tasks := make([]int, 20)
	var ran atomic.Int32

	stats := Run(ctx, tasks, 2, func(_ context.Context, _ int) error {
		if ran.Add(1) == 2 {
			cancel()
		}
		return nil
	})

	if stats.Total() != 20 {
		t.Errorf("Total() = %d, want 20", stats.Total())
	}
	if stats.Skipped == 0 {
		t.Errorf("expected skipped tasks after cancel, got %+v", stats)
	}
	if int(ran.Load()) != stats.Completed {
		t.Errorf("ran %d, completed %d", ran.Load(), stats.Completed)
	}
}

func TestRunEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		tasks []string
		width int
	}{
		{"no tasks", nil, 3},
		{"fewer tasks than width", []string{"a"}, 3},
		{"default width", []string{"a", "b", "c", "d"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var probe inFlightProbe
			stats := Run(context.Background(), tt.tasks, tt.width, func(_ context.Context, _ string) error {
				probe.enter()
				defer probe.leave()
				return nil
			})
			if stats.Completed != len(tt.tasks) {
				t.Errorf("Completed = %d, want %d", stats.Completed, len(tt.tasks))
			}
			if peak := int(probe.peak.Load()); peak > 3 {
				t.Errorf("peak = %d, want <= 3", peak)
			}
		})
	}
}
