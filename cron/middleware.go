package cron

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"go.uber.org/zap"
)

// Middleware decorates a Task. The first middleware given to NewCron is the
// outermost.
type Middleware func(Task) Task

func chainMiddlewares(t Task, mws []Middleware) Task {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i](t)
	}
	return t
}

// around builds a middleware from a function that receives the task being
// decorated along with the run context
func around(fn func(ctx context.Context, next Task) error) Middleware {
	return func(next Task) Task {
		return TaskFunc{
			TaskName: next.Name(),
			Fn:       func(ctx context.Context) error { return fn(ctx, next) },
		}
	}
}

// recoverTasks turns a task panic into routine.ErrPanicRecovered so the
// chain aborts instead of the scheduler goroutine dying
func recoverTasks(log logger.Logger) Middleware {
	return around(func(ctx context.Context, next Task) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error("task panicked",
				zap.String("task", next.Name()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = routine.ErrPanic(r)
		}()
		return next.Run(ctx)
	})
}

func logTasks(log logger.Logger) Middleware {
	return around(func(ctx context.Context, next Task) error {
		fields := []zap.Field{zap.String("task", next.Name())}
		log.Debug("task started", fields...)

		start := time.Now()
		err := next.Run(ctx)
		fields = append(fields, zap.Duration("duration", time.Since(start)))
		if err != nil {
			log.Error("task failed", append(fields, zap.Error(err))...)
			return err
		}
		log.Info("task completed", fields...)
		return nil
	})
}

// TimeoutMiddleware bounds every task run to d
func TimeoutMiddleware(d time.Duration) Middleware {
	return around(func(ctx context.Context, next Task) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Run(ctx)
	})
}
