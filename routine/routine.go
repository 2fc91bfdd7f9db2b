// Package routine runs goroutines with panic recovery so a failing fetch,
// poll loop or sink can never take the whole process down.
package routine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/dailyyoga/seatsync/logger"
	"go.uber.org/zap"
)

// Runner starts goroutines that recover and log their own panics
type Runner interface {
	// Go runs fn in a new goroutine, a panic is logged under name
	Go(name string, fn func())
	// GoContext is Go for functions that take a context
	GoContext(ctx context.Context, name string, fn func(ctx context.Context))
	// Wait blocks until every goroutine started by the runner has returned
	Wait()
}

type defaultRunner struct {
	log logger.Logger
	wg  sync.WaitGroup
}

// New creates a new Runner with the given logger
func New(log logger.Logger) Runner {
	return &defaultRunner{log: log}
}

func (r *defaultRunner) Go(name string, fn func()) {
	r.spawn(name, fn)
}

func (r *defaultRunner) GoContext(ctx context.Context, name string, fn func(ctx context.Context)) {
	r.spawn(name, func() { fn(ctx) })
}

func (r *defaultRunner) Wait() {
	r.wg.Wait()
}

func (r *defaultRunner) spawn(name string, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.recoverPanic(name)
		fn()
	}()
}

// Safe calls fn and turns a panic into an error wrapping ErrPanicRecovered.
// It is used where the caller must always observe completion, such as a
// shared fetch with waiters attached.
func Safe(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = ErrPanic(rec)
		}
	}()
	return fn()
}

// recoverPanic logs a panic of the named goroutine and swallows it
func (r *defaultRunner) recoverPanic(name string) {
	rec := recover()
	if rec == nil {
		return
	}
	fields := make([]zap.Field, 0, 3)
	if name != "" {
		fields = append(fields, zap.String("routine", name))
	}
	fields = append(fields, zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
	r.log.Error("goroutine panicked", fields...)
}
