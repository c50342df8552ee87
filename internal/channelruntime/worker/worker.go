package worker

import (
	"context"
	"sync"
)

// Pool serializes jobs per channel: each channel gets one goroutine fed by a
// buffered queue, so two jobs for the same channel never run concurrently,
// while different channels proceed in parallel up to the shared semaphore.
type Pool[J any] struct {
	ctx    context.Context
	sem    chan struct{}
	buffer int
	handle func(context.Context, J)

	mu       sync.Mutex
	channels map[string]chan J
}

type Options[J any] struct {
	Ctx            context.Context
	MaxConcurrency int
	Buffer         int
	Handle         func(context.Context, J)
}

func NewPool[J any](opts Options[J]) *Pool[J] {
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	maxConc := opts.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 4
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Pool[J]{
		ctx:      ctx,
		sem:      make(chan struct{}, maxConc),
		buffer:   buffer,
		handle:   opts.Handle,
		channels: make(map[string]chan J),
	}
}

// Enqueue queues job on channel's serial queue, starting the channel worker
// on first use. It blocks while the queue is full, unless ctx ends first.
func (p *Pool[J]) Enqueue(ctx context.Context, channel string, job J) error {
	if ctx == nil {
		ctx = p.ctx
	}
	jobs := p.channelQueue(channel)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	case jobs <- job:
		return nil
	}
}

// QueueLen reports the number of jobs waiting on channel's queue.
func (p *Pool[J]) QueueLen(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if jobs, ok := p.channels[channel]; ok {
		return len(jobs)
	}
	return 0
}

func (p *Pool[J]) channelQueue(channel string) chan J {
	p.mu.Lock()
	defer p.mu.Unlock()
	if jobs, ok := p.channels[channel]; ok {
		return jobs
	}
	jobs := make(chan J, p.buffer)
	p.channels[channel] = jobs
	go p.run(jobs)
	return jobs
}

func (p *Pool[J]) run(jobs <-chan J) {
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			select {
			case p.sem <- struct{}{}:
			case <-p.ctx.Done():
				return
			}
			func() {
				defer func() { <-p.sem }()
				p.handle(p.ctx, job)
			}()
		}
	}
}
