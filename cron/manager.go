package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/dailyyoga/seatsync/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// chainJob represents a chain of tasks that execute sequentially
type chainJob struct {
	name   string
	tasks  []Task
	logger logger.Logger
	ctx    context.Context
}

// Run executes all tasks in the chain sequentially
// If any task fails, the chain is aborted and subsequent tasks are not executed
func (j *chainJob) Run() {
	_ = j.run()
}

func (j *chainJob) run() error {
	if j.ctx.Err() != nil {
		return ErrCronClosed
	}
	ctx, _ := withSharedData(j.ctx)

	j.logger.Info("chain job started", zap.String("chain_name", j.name))

	for _, task := range j.tasks {
		if err := task.Run(ctx); err != nil {
			j.logger.Error("chain job aborted due to task failure",
				zap.String("chain_name", j.name),
				zap.String("task_name", task.Name()),
				zap.Error(err),
			)
			return err
		}
	}

	j.logger.Info("chain job completed", zap.String("chain_name", j.name))
	return nil
}

// cronManager is the default implementation of the Cron interface
type cronManager struct {
	cron        *cron.Cron
	middlewares []Middleware
	logger      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	chains map[string]*chainJob
	closed bool
}

// newCronManager creates a new cron manager instance
func newCronManager(log logger.Logger, mws ...Middleware) *cronManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &cronManager{
		cron:        cron.New(cron.WithSeconds()),
		middlewares: mws,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
		chains:      make(map[string]*chainJob),
	}
}

// Start begins the cron scheduler
func (m *cronManager) Start() {
	m.cron.Start()
}

// Close cancels running chains, stops the scheduler and waits for running
// jobs to complete
func (m *cronManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// AddTasks adds a chain of tasks to be executed according to the cron spec
// The spec follows the standard cron format with support for seconds (6 fields)
// Example: "0 0 * * * *" (every hour at minute 0, second 0)
func (m *cronManager) AddTasks(name, spec string, tasks ...Task) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrCronClosed
	}

	decorated := make([]Task, len(tasks))
	for i, task := range tasks {
		named := TaskFunc{TaskName: name + ":" + task.Name(), Fn: task.Run}
		decorated[i] = chainMiddlewares(named, m.middlewares)
	}

	job := &chainJob{
		name:   name,
		tasks:  decorated,
		logger: m.logger,
		ctx:    m.ctx,
	}

	if _, err := m.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("%w: chain %s with spec %s: %v", ErrInvalidSpec, name, spec, err)
	}
	m.chains[name] = job

	m.logger.Info("chain added",
		zap.String("chain_name", name),
		zap.String("spec", spec),
		zap.Int("task_count", len(tasks)),
	)

	return nil
}

// AddChain is alias for AddTasks
func (m *cronManager) AddChain(chain Chain) error {
	return m.AddTasks(chain.Name, chain.Spec, chain.Tasks...)
}

// RunNow executes a registered chain once in the calling goroutine
func (m *cronManager) RunNow(name string) error {
	m.mu.Lock()
	job, ok := m.chains[name]
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrCronClosed
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChain, name)
	}
	return job.run()
}
