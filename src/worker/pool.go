// Package worker runs recognition off the event loop goroutine.
package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"screen-capture-ocr/src/ocr"
	"screen-capture-ocr/src/pixelformat"
)

// ResultCallback is invoked on OCR completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(text string, err error)

// Pool is a fixed-size OCR worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	recognizer ocr.Recognizer
	jobs       chan job
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

type job struct {
	ctx context.Context
	img *pixelformat.CanonicalImage
	cb  ResultCallback
}

// New creates a worker pool around recognizer. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int, recognizer ocr.Recognizer) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{recognizer: recognizer, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("WORKER: starting OCR for %dx%d image", j.img.Width(), j.img.Height())
				text, err := p.recognizeWithContext(j.ctx, j.img)
				log.Printf("WORKER: OCR completed, text length=%d, err=%v", len(text), err)
				j.cb(text, err)
			}
		}()
	}
}

// Submit enqueues an OCR job if the single-slot queue is free. Returns false if dropped.
// Submit must not be called after Close.
func (p *Pool) Submit(ctx context.Context, img *pixelformat.CanonicalImage, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, img: img, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// recognizeWithContext returns as soon as ctx is done, even when the engine
// does not watch ctx itself. The engine call then finishes in the background.
func (p *Pool) recognizeWithContext(ctx context.Context, img *pixelformat.CanonicalImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, ok := ctx.Deadline(); !ok && ctx.Done() == nil {
		return p.recognizer.Recognize(ctx, img)
	}
	type outcome struct {
		text string
		err  error
	}
	resCh := make(chan outcome, 1)
	go func() {
		text, err := p.recognizer.Recognize(ctx, img)
		resCh <- outcome{text, err}
	}()
	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
