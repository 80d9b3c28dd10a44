package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for layout operations.
var (
	// ErrUnknownBody indicates a link endpoint or pin target that is not in the body set.
	ErrUnknownBody = errors.New("forcegraph: unknown body")

	// ErrDuplicateBody indicates two dataset nodes share an identifier.
	ErrDuplicateBody = errors.New("forcegraph: duplicate body id")

	// ErrUnknownForce indicates a force name outside the known set.
	ErrUnknownForce = errors.New("forcegraph: unknown force")

	// ErrInvalidConfig indicates a force or engine parameter is out of range.
	ErrInvalidConfig = errors.New("forcegraph: invalid configuration")

	// ErrNotInitialized indicates the engine has no dataset yet.
	ErrNotInitialized = errors.New("forcegraph: simulation not initialized")

	// ErrClosed indicates the engine was torn down.
	ErrClosed = errors.New("forcegraph: simulation closed")

	// ErrEmptyDataset indicates a dataset without nodes.
	ErrEmptyDataset = errors.New("forcegraph: dataset has no nodes")
)

// ReferenceError reports a link whose endpoint is missing from the body set.
type ReferenceError struct {
	Link int
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("link %d: endpoint %q not found", e.Link, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	return ErrUnknownBody
}

// ConfigError wraps a rejected force configuration.
type ConfigError struct {
	Force string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Force == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid %s configuration: %v", e.Force, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}
