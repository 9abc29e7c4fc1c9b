package systems

import (
	"context"
	"errors"
	"sync"

	"github.com/Algor1tm/Athena-sub002/engine/containers"
	"github.com/Algor1tm/Athena-sub002/engine/core"
)

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
	ErrJobSystemShutdown   = errors.New("job system is shut down")
	ErrInvalidJob          = errors.New("job has nothing to run")
)

type JobType int

const (
	JobTypeGeneral JobType = iota
	// Loading files from disk.
	JobTypeResourceLoad
)

type JobPriority int

const (
	JobPriorityLow JobPriority = iota
	JobPriorityNormal
	JobPriorityHigh
)

/**
 * @brief Describes a job. Run executes on a worker goroutine; OnComplete and
 * OnFailure are called on the frame thread from JobSystem.Update, so they
 * may touch the renderer.
 */
type Job struct {
	Type     JobType
	Priority JobPriority
	// Run must return promptly once ctx is canceled.
	Run        func(ctx context.Context) (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

type jobResult struct {
	job    Job
	result interface{}
	err    error
}

type JobSystemConfig struct {
	NumWorkers int
	// Capacity of each priority queue. Submit blocks while the queue is full.
	QueueSize int
	// Completed jobs held in the ring until the next Update. Completions
	// past it spill into an unbounded list, so workers never wait on Update.
	MaxCompleted int
}

type JobSystem struct {
	numWorkers int
	queues     [3]chan Job // indexed by priority
	wg         sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	submitMu sync.RWMutex
	closed   bool

	resultMu  sync.Mutex
	completed *containers.RingQueue[jobResult]
	// Completions that did not fit in the ring.
	overflow []jobResult
}

func NewJobSystem(config JobSystemConfig) (*JobSystem, error) {
	if config.NumWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if config.QueueSize < 0 {
		return nil, ErrNegativeChannelSize
	}
	if config.MaxCompleted <= 0 {
		config.MaxCompleted = 64
	}

	js := &JobSystem{
		numWorkers: config.NumWorkers,
		completed:  containers.NewRingQueue[jobResult](config.MaxCompleted),
	}
	for i := range js.queues {
		js.queues[i] = make(chan Job, config.QueueSize)
	}
	js.ctx, js.cancel = context.WithCancel(context.Background())

	js.start()
	core.LogDebug("job system started with %d workers", config.NumWorkers)
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for {
				job, ok := js.next()
				if !ok {
					return
				}
				result, err := js.run(job)
				js.complete(jobResult{job: job, result: result, err: err})
			}
		}()
	}
}

// next picks the highest priority job available, blocking until one
// arrives. It reports false once every queue is closed and drained.
func (js *JobSystem) next() (Job, bool) {
	high, normal, low := js.queues[JobPriorityHigh], js.queues[JobPriorityNormal], js.queues[JobPriorityLow]
	for high != nil || normal != nil || low != nil {
		select {
		case job, ok := <-high:
			if ok {
				return job, true
			}
			high = nil
			continue
		default:
		}
		select {
		case job, ok := <-high:
			if ok {
				return job, true
			}
			high = nil
		case job, ok := <-normal:
			if ok {
				return job, true
			}
			normal = nil
		case job, ok := <-low:
			if ok {
				return job, true
			}
			low = nil
		}
	}
	return Job{}, false
}

func (js *JobSystem) run(job Job) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			core.LogError("job panicked: %v", r)
			err = errors.New("job panicked")
		}
	}()
	return job.Run(js.ctx)
}

func (js *JobSystem) complete(r jobResult) {
	js.resultMu.Lock()
	defer js.resultMu.Unlock()
	if js.completed.IsFull() || len(js.overflow) > 0 {
		js.overflow = append(js.overflow, r)
		return
	}
	js.completed.Enqueue(r)
}

/**
 * @brief Submits the provided job to be queued for execution.
 * @param job The description of the job to be executed.
 */
func (js *JobSystem) Submit(job Job) error {
	if job.Run == nil {
		return ErrInvalidJob
	}
	js.submitMu.RLock()
	defer js.submitMu.RUnlock()
	if js.closed {
		return ErrJobSystemShutdown
	}
	priority := job.Priority
	if priority < JobPriorityLow || priority > JobPriorityHigh {
		priority = JobPriorityNormal
	}
	js.queues[priority] <- job
	return nil
}

/**
 * @brief Updates the job system. Should happen once an update cycle.
 * Runs the completion callbacks of finished jobs on the calling thread.
 * @return The number of jobs whose callbacks ran.
 */
func (js *JobSystem) Update() int {
	js.resultMu.Lock()
	results := make([]jobResult, 0, js.completed.Len()+len(js.overflow))
	for !js.completed.IsEmpty() {
		r, _ := js.completed.Dequeue()
		results = append(results, r)
	}
	results = append(results, js.overflow...)
	js.overflow = nil
	js.resultMu.Unlock()

	for _, r := range results {
		if r.err != nil {
			core.LogError("job failed: %s", r.err)
			if r.job.OnFailure != nil {
				r.job.OnFailure(r.err)
			}
			continue
		}
		if r.job.OnComplete != nil {
			r.job.OnComplete(r.result)
		}
	}
	return len(results)
}

/**
 * @brief Shuts the job system down. Queued jobs still run, with a canceled
 * context, and their callbacks are delivered before returning.
 */
func (js *JobSystem) Shutdown() error {
	js.cancel()

	js.submitMu.Lock()
	if js.closed {
		js.submitMu.Unlock()
		return ErrJobSystemShutdown
	}
	js.closed = true
	for _, q := range js.queues {
		close(q)
	}
	js.submitMu.Unlock()

	js.wg.Wait()
	js.Update()
	core.LogDebug("job system shut down")
	return nil
}
