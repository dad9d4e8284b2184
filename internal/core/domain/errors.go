package domain

import "fmt"

// StoreError covers unreadable or unwritable persisted state. A failed
// save never corrupts the previously persisted snapshot.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("state store: %s: %s", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConfigError is fatal at startup, before any poll attempt.
type ConfigError struct {
	Param string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config param %s: %s", e.Param, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
