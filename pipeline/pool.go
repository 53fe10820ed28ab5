package pipeline

import (
	"context"
)

// Pool bounds concurrent pipeline runs with a semaphore. Requests beyond
// the bound wait for a slot or their context, whichever comes first.
type Pool struct {
	pipe *Pipeline
	sem  chan struct{}
}

// NewPool wraps a pipeline with a concurrency bound.
func NewPool(pipe *Pipeline, maxConcurrent int) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Pool{
		pipe: pipe,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Run acquires a slot and runs the request.
func (p *Pool) Run(ctx context.Context, req Request) (*Outcome, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	return p.pipe.Run(ctx, req)
}

// InFlight reports the number of runs currently holding a slot.
func (p *Pool) InFlight() int {
	return len(p.sem)
}
