// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trogen

import "github.com/pkg/errors"

// A Port names one signal of a trojan core's fixed interface: a declared
// input or output with an immutable width. Taps bind against ports by name,
// and the bind step checks widths exactly (no silent padding).
//
type Port struct {
	Name  string
	Width uint
}

// A Register is a named, fixed-width clocked storage element. It holds a
// current (committed) value and, during a cycle, at most one pending value.
// Value never observes a pending write; only the circuit's commit phase
// moves pending to current. A register is owned by exactly one FSM; a second
// SetPending in the same cycle is a multiple-driver fault and is rejected,
// never overwritten.
//
type Register struct {
	name    string
	width   uint
	reset   Word
	cur     Word
	pend    Word
	hasPend bool
}

// Name returns the register's declared name.
func (r *Register) Name() string { return r.name }

// Width returns the register's declared bit width.
func (r *Register) Width() uint { return r.width }

// Value returns the committed value.
func (r *Register) Value() Word { return r.cur }

// ResetValue returns the declared reset constant.
func (r *Register) ResetValue() Word { return r.reset }

// SetPending stages v as the register's next committed value. It fails if
// the width differs from the declared width or if a pending value was
// already staged this cycle (multiple drivers).
//
func (r *Register) SetPending(v Word) error {
	if v.Width() != r.width {
		return errors.Errorf("register %q: pending width %d != declared width %d", r.name, v.Width(), r.width)
	}
	if r.hasPend {
		return errors.Errorf("register %q: multiple drivers in one cycle", r.name)
	}
	r.pend = v
	r.hasPend = true
	return nil
}

// commit moves the pending value (if any) into the current value.
func (r *Register) commit() {
	if r.hasPend {
		r.cur = r.pend
		r.hasPend = false
	}
}

// drop discards any pending value without committing it.
func (r *Register) drop() { r.hasPend = false }

// forceReset loads the reset constant into the current value immediately
// and discards any pending write. Reset dominates clocked updates.
func (r *Register) forceReset() {
	r.cur = r.reset
	r.hasPend = false
}
