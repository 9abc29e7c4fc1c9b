package systems

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestJobSystem(t *testing.T, workers, maxCompleted int) *JobSystem {
	t.Helper()
	js, err := NewJobSystem(JobSystemConfig{NumWorkers: workers, QueueSize: 16, MaxCompleted: maxCompleted})
	if err != nil {
		t.Fatal(err)
	}
	return js
}

// updateUntil calls Update until n callbacks ran in total.
func updateUntil(t *testing.T, js *JobSystem, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	done := 0
	for done < n {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d jobs completed", done, n)
		}
		done += js.Update()
		time.Sleep(time.Millisecond)
	}
}

func TestNewJobSystemValidates(t *testing.T) {
	if _, err := NewJobSystem(JobSystemConfig{NumWorkers: 0}); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("zero workers: %v", err)
	}
	if _, err := NewJobSystem(JobSystemConfig{NumWorkers: 1, QueueSize: -1}); !errors.Is(err, ErrNegativeChannelSize) {
		t.Errorf("negative queue: %v", err)
	}
}

func TestCallbacksRunOnUpdate(t *testing.T) {
	js := newTestJobSystem(t, 4, 4)
	defer js.Shutdown()

	const jobs = 20
	var ran atomic.Int32
	sum, failures := 0, 0
	for i := 0; i < jobs; i++ {
		i := i
		err := js.Submit(Job{
			Run: func(ctx context.Context) (interface{}, error) {
				ran.Add(1)
				if i%5 == 0 {
					return nil, errors.New("boom")
				}
				return i, nil
			},
			// Callbacks run on this goroutine, no synchronization needed.
			OnComplete: func(result interface{}) { sum += result.(int) },
			OnFailure:  func(error) { failures++ },
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	updateUntil(t, js, jobs)

	if ran.Load() != jobs {
		t.Errorf("%d jobs ran", ran.Load())
	}
	if failures != 4 {
		t.Errorf("%d failures, want 4", failures)
	}
	// 0..19 without multiples of 5.
	if sum != 190-(0+5+10+15) {
		t.Errorf("sum of results %d", sum)
	}
}

func TestPanickingJobFails(t *testing.T) {
	js := newTestJobSystem(t, 1, 4)
	defer js.Shutdown()

	var failed error
	js.Submit(Job{
		Run:       func(context.Context) (interface{}, error) { panic("bad job") },
		OnFailure: func(err error) { failed = err },
	})
	updateUntil(t, js, 1)
	if failed == nil {
		t.Fatal("panic not reported as failure")
	}
}

func TestShutdownDeliversPendingAndRejectsNewJobs(t *testing.T) {
	js := newTestJobSystem(t, 2, 1)

	completed := 0
	for i := 0; i < 8; i++ {
		if err := js.Submit(Job{
			Priority:   JobPriorityLow,
			Run:        func(context.Context) (interface{}, error) { return nil, nil },
			OnComplete: func(interface{}) { completed++ },
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if completed != 8 {
		t.Fatalf("%d of 8 completions delivered at shutdown", completed)
	}
	if err := js.Submit(Job{Run: func(context.Context) (interface{}, error) { return nil, nil }}); !errors.Is(err, ErrJobSystemShutdown) {
		t.Fatalf("submit after shutdown: %v", err)
	}
	if err := js.Shutdown(); !errors.Is(err, ErrJobSystemShutdown) {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestSubmitBurstWithoutUpdate(t *testing.T) {
	js, err := NewJobSystem(JobSystemConfig{NumWorkers: 1, QueueSize: 1, MaxCompleted: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer js.Shutdown()

	const jobs = 32
	order := make([]int, 0, jobs)
	submitted := make(chan error, 1)
	go func() {
		for i := 0; i < jobs; i++ {
			i := i
			if err := js.Submit(Job{
				Run:        func(context.Context) (interface{}, error) { return i, nil },
				OnComplete: func(result interface{}) { order = append(order, result.(int)) },
			}); err != nil {
				submitted <- err
				return
			}
		}
		submitted <- nil
	}()

	select {
	case err := <-submitted:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("submit blocked while completions were waiting for Update")
	}

	updateUntil(t, js, jobs)
	for i, v := range order {
		if v != i {
			t.Fatalf("completion %d delivered as %d", i, v)
		}
	}
}

func TestShutdownCancelsContext(t *testing.T) {
	js := newTestJobSystem(t, 1, 4)
	started := make(chan struct{})
	var canceled atomic.Bool
	js.Submit(Job{
		Run: func(ctx context.Context) (interface{}, error) {
			close(started)
			<-ctx.Done()
			canceled.Store(true)
			return nil, ctx.Err()
		},
	})
	<-started
	js.Shutdown()
	if !canceled.Load() {
		t.Fatal("running job did not observe cancellation")
	}
}

func TestSubmitRejectsEmptyJob(t *testing.T) {
	js := newTestJobSystem(t, 1, 1)
	defer js.Shutdown()
	if err := js.Submit(Job{}); !errors.Is(err, ErrInvalidJob) {
		t.Fatalf("expected ErrInvalidJob, got %v", err)
	}
}
