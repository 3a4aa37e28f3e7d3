// Package processor caps how many enrichment runs execute at once.
//
// Runs are CPU/GPU and memory heavy (ffmpeg plus model inference), so the
// service boundary pushes every request through a fixed set of workers.
// Submit blocks until the caller's run has finished.
package processor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/pipeline"
	"video-enrich-go/internal/types"
)

const DefaultWorkers = 3

var ErrClosed = errors.New("processor closed")

// Runner executes one enrichment run.
type Runner interface {
	Execute(ctx context.Context, videoPath string, meta types.VideoMetadata, apiKey string) (pipeline.Report, error)
}

// Job is one submitted run.
type Job struct {
	VideoPath string
	Metadata  types.VideoMetadata
	APIKey    string
}

type result struct {
	report pipeline.Report
	err    error
}

type task struct {
	ctx  context.Context
	job  Job
	done chan result
}

// Pool is a fixed-size worker pool with blocking submission.
type Pool struct {
	runner  Runner
	workers int
	jobs    chan *task
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	active  atomic.Int32
}

// NewPool starts workers goroutines serving runner.
func NewPool(runner Runner, workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	p := &Pool{
		runner:  runner,
		workers: workers,
		jobs:    make(chan *task),
		quit:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Submit queues job and waits for its report. It returns early only when ctx
// ends or the pool is closed; a run already started keeps going and still
// releases its resources.
func (p *Pool) Submit(ctx context.Context, job Job) (pipeline.Report, error) {
	t := &task{ctx: ctx, job: job, done: make(chan result, 1)}
	select {
	case p.jobs <- t:
	case <-ctx.Done():
		return pipeline.Report{}, ctx.Err()
	case <-p.quit:
		return pipeline.Report{}, ErrClosed
	}
	select {
	case r := <-t.done:
		return r.report, r.err
	case <-ctx.Done():
		return pipeline.Report{}, ctx.Err()
	}
}

// Outcome pairs a job with its result.
type Outcome struct {
	Job    Job
	Report pipeline.Report
	Err    error
}

// SubmitAll submits every job concurrently and returns outcomes in job order.
// The pool still bounds how many run at once.
func (p *Pool) SubmitAll(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			report, err := p.Submit(ctx, job)
			out[i] = Outcome{Job: job, Report: report, Err: err}
		}(i, job)
	}
	wg.Wait()
	return out
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Active returns the number of runs currently executing.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Close stops accepting work and waits for running jobs to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := logger.Component("processor").WithField("worker", id)
	for {
		select {
		case <-p.quit:
			return
		case t := <-p.jobs:
			if err := t.ctx.Err(); err != nil {
				t.done <- result{err: err}
				continue
			}
			p.active.Add(1)
			start := time.Now()
			report, err := p.runner.Execute(t.ctx, t.job.VideoPath, t.job.Metadata, t.job.APIKey)
			p.active.Add(-1)
			entry := log.WithField("video", t.job.VideoPath).WithField("duration_ms", time.Since(start).Milliseconds())
			if err != nil {
				entry.WithField("error", err.Error()).Warn("run failed")
			} else {
				entry.Debug("run finished")
			}
			t.done <- result{report: report, err: err}
		}
	}
}
