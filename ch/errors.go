package ch

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferFull is returned when a row cannot be queued
	ErrBufferFull = errors.New("ch: buffer is full, please retry later")

	// ErrWriterClosed is returned by Write after Close
	ErrWriterClosed = errors.New("ch: writer is closed")

	// ErrConnectionClosed is returned by queries after Close
	ErrConnectionClosed = errors.New("ch: connection is closed")

	// ErrInvalidTable is returned for a table name that is not a plain identifier
	ErrInvalidTable = errors.New("ch: invalid table name")
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("ch: invalid config: %s", msg)
}

// ErrConnection ClickHouse connection error
func ErrConnection(err error) error {
	return fmt.Errorf("ch: connection failed: %w", err)
}

// ErrInsert insert error
func ErrInsert(table string, err error) error {
	return fmt.Errorf("ch: insert to table %s failed: %w", table, err)
}

// ErrQuery query error
func ErrQuery(table string, err error) error {
	return fmt.Errorf("ch: query table %s failed: %w", table, err)
}
