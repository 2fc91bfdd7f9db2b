package cron

import "fmt"

var (
	// ErrNoTasks is returned when attempting to add a chain job with no tasks
	ErrNoTasks = fmt.Errorf("cron: no tasks provided")

	// ErrInvalidSpec is returned when a cron spec string is invalid
	ErrInvalidSpec = fmt.Errorf("cron: invalid cron spec")

	// ErrCronClosed is returned when attempting to operate on a closed cron manager
	ErrCronClosed = fmt.Errorf("cron: cron manager is closed")

	// ErrUnknownChain is returned by RunNow for a chain that was never added
	ErrUnknownChain = fmt.Errorf("cron: unknown chain")

	// ErrNoEvents is returned by the list-events task when it found nothing to warm
	ErrNoEvents = fmt.Errorf("cron: no events to warm")
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("cron: invalid config: %s", msg)
}

// ErrListEvents event source failure
func ErrListEvents(err error) error {
	return fmt.Errorf("cron: list events failed: %w", err)
}
