// Package cron schedules chains of tasks on a seconds-resolution cron
// spec. Seatsync uses it to keep the seats of upcoming events warm.
package cron

import (
	"context"

	"github.com/dailyyoga/seatsync/logger"
)

// Task is one step of a chain. Tasks of the same chain communicate through
// the SharedData found in ctx.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Chain is a named sequence of tasks run on Spec. A failing task aborts the
// rest of the run.
type Chain struct {
	Name  string
	Spec  string
	Tasks []Task
}

// Cron schedules chains
type Cron interface {
	Start()
	// Close cancels running chains and waits for them to return. It is
	// idempotent.
	Close()
	// AddTasks registers tasks as chain name, run on the six field spec
	AddTasks(name string, spec string, tasks ...Task) error
	AddChain(chain Chain) error
	// RunNow runs a registered chain once in the calling goroutine
	RunNow(name string) error
}

// TaskFunc adapts a function to the Task interface
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

// Name implements Task
func (f TaskFunc) Name() string { return f.TaskName }

// Run implements Task
func (f TaskFunc) Run(ctx context.Context) error { return f.Fn(ctx) }

// NewCron returns a scheduler with six field specs. Every task is wrapped in
// panic recovery and run logging, then in mws.
func NewCron(log logger.Logger, mws ...Middleware) Cron {
	return newCronManager(log, append([]Middleware{recoverTasks(log), logTasks(log)}, mws...)...)
}
