package generator

import (
	"context"
	"sync"

	"github.com/SecretPocketCat/chela/internal/images"
)

// DispatchCapacity is the number of batches that may wait for the dispatcher.
// A further Submit blocks until the dispatcher takes the waiting batch.
const DispatchCapacity = 1

// Batch is the job list of one directory open.
type Batch struct {
	ID   string
	Jobs []images.Job
}

// Dispatch is the bounded hand-off between directory opens and the pool.
type Dispatch struct {
	ch        chan Batch
	done      chan struct{}
	closeOnce sync.Once
}

// NewDispatch returns an open dispatch channel.
func NewDispatch() *Dispatch {
	return &Dispatch{
		ch:   make(chan Batch, DispatchCapacity),
		done: make(chan struct{}),
	}
}

// Send enqueues a batch, waiting for capacity. It fails with
// ErrDispatchClosed after Close and with the context error if ctx ends first.
func (d *Dispatch) Send(ctx context.Context, batch Batch) error {
	select {
	case <-d.done:
		return ErrDispatchClosed
	default:
	}
	select {
	case d.ch <- batch:
		// Close may have raced the send; Stop then fails the batch.
		select {
		case <-d.done:
			return ErrDispatchClosed
		default:
		}
		return nil
	case <-d.done:
		return ErrDispatchClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further sends. Batches still buffered stay until drained.
func (d *Dispatch) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// Pending reports the number of buffered batches.
func (d *Dispatch) Pending() int {
	return len(d.ch)
}

// drain removes and returns every buffered batch without blocking.
func (d *Dispatch) drain() []Batch {
	var out []Batch
	for {
		select {
		case batch := <-d.ch:
			out = append(out, batch)
		default:
			return out
		}
	}
}

func (d *Dispatch) receive() <-chan Batch {
	return d.ch
}

func (d *Dispatch) closed() <-chan struct{} {
	return d.done
}
