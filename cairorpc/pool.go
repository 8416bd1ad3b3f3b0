// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"github.com/panjf2000/ants/v2"
)

// Pool bounds the number of calls running at once. Calls beyond its size
// wait for a free worker.
type Pool struct {
	workers *ants.Pool
}

func NewPool(size int) (*Pool, error) {
	workers, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Pool{workers: workers}, nil
}

// Do runs [task] on a worker and returns once it finished.
func (p *Pool) Do(task func()) error {
	done := make(chan struct{})
	err := p.workers.Submit(func() {
		defer close(done)
		task()
	})
	if err != nil {
		return err
	}
	<-done
	return nil
}

// Busy returns the number of workers running a call.
func (p *Pool) Busy() int { return p.workers.Running() }

func (p *Pool) Size() int { return p.workers.Cap() }

func (p *Pool) Release() { p.workers.Release() }
