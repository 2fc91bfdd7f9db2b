package config

import "fmt"

// ErrLoad config loading error
func ErrLoad(err error) error {
	return fmt.Errorf("config: load failed: %w", err)
}

// ErrSection invalid section error
func ErrSection(section string, err error) error {
	return fmt.Errorf("config: %s: %w", section, err)
}
