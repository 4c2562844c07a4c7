// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trogen

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnsupportedArchetype is returned when a host or driver requests a
// trojan behavior class that no concrete core implements. It is a modeling
// limitation, distinct from configuration and runtime faults.
var ErrUnsupportedArchetype = errors.New("unsupported archetype")

// A ConfigError is a construction-time fault: a tap width that does not
// match its bound signal, a duplicate driver declaration, an undeclared
// injection target. Configuration errors are fatal; the kernel never patches
// them with implicit truncation or zero-extension.
//
type ConfigError struct {
	Part   string // component or tap being constructed
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Part + ": " + e.Reason
}

// Configf builds a ConfigError for the named part.
//
func Configf(part, format string, args ...interface{}) error {
	return &ConfigError{Part: part, Reason: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err (or its cause) is a configuration error.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// A CycleError is a runtime invariant violation: two writers driving the
// same register in one cycle, or a tap reading state that does not exist.
// It aborts the offending cycle's commit and is not recoverable; resuming
// would silently desynchronize host and trojan state.
//
type CycleError struct {
	Cycle    uint64
	Register string
	Reason   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %d: register %q: %s", e.Cycle, e.Register, e.Reason)
}

// IsCycle reports whether err (or its cause) is a runtime cycle fault.
func IsCycle(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}
