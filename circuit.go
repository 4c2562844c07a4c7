// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trogen

import "github.com/pkg/errors"

// A Component is a piece of settle-phase logic mounted into a circuit. It
// evaluates once per cycle against the previous cycle's committed values and
// stages pending register writes. Components must not read pending values,
// which keeps their evaluation order irrelevant.
//
type Component func(c *Circuit) error

// Circuit is the synchronous scheduler shared by every host and trojan
// instance: a single clock domain stepped in two phases. During Settle every
// mounted component runs, staging pending writes against the committed
// state. During Commit all pending values become current atomically.
//
// Reset is asynchronous. AssertReset forces every register to its declared
// constant immediately, outside the Settle/Commit pairing, and holds it
// there until DeassertReset.
//
type Circuit struct {
	name    string
	regs    []*Register
	byName  map[string]*Register
	comps   []Component
	cycle   uint64
	inReset bool
}

// New returns an empty circuit.
//
func New(name string) *Circuit {
	return &Circuit{
		name:   name,
		byName: make(map[string]*Register),
	}
}

// Name returns the circuit name.
func (c *Circuit) Name() string { return c.name }

// Register declares a new register with the given name, width and reset
// constant and loads the reset constant as its initial value. Declaring the
// same name twice is a configuration error (it would create two drivers for
// one architectural register).
//
func (c *Circuit) Register(name string, width uint, reset uint64) (*Register, error) {
	if name == "" {
		return nil, Configf(c.name, "register with empty name")
	}
	if _, ok := c.byName[name]; ok {
		return nil, Configf(c.name, "duplicate register %q", name)
	}
	if width == 0 || width > MaxWidth {
		return nil, Configf(c.name, "register %q: invalid width %d", name, width)
	}
	r := &Register{
		name:  name,
		width: width,
		reset: W(width, reset),
	}
	r.cur = r.reset
	c.regs = append(c.regs, r)
	c.byName[name] = r
	return r, nil
}

// MustRegister is Register for static declarations that cannot fail.
func (c *Circuit) MustRegister(name string, width uint, reset uint64) *Register {
	r, err := c.Register(name, width, reset)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the register with the given name, or nil.
func (c *Circuit) Lookup(name string) *Register { return c.byName[name] }

// Mount adds settle-phase components to the circuit. Components run in
// mount order, but correctness does not depend on it.
func (c *Circuit) Mount(comps ...Component) {
	c.comps = append(c.comps, comps...)
}

// Cycle returns the number of Step calls since construction. Cycles stepped
// under a held reset count too; reset never clears the counter, so logged
// cycle indices stay monotonic across injected reset pulses.
func (c *Circuit) Cycle() uint64 { return c.cycle }

// InReset reports whether reset is currently asserted.
func (c *Circuit) InReset() bool { return c.inReset }

// AssertReset forces every register to its reset constant immediately and
// discards in-flight pending writes. While asserted, Step keeps registers
// at their constants.
func (c *Circuit) AssertReset() {
	c.inReset = true
	for _, r := range c.regs {
		r.forceReset()
	}
}

// DeassertReset releases reset; the next Step resumes normal
// Settle/Commit cycling from the forced initial state.
func (c *Circuit) DeassertReset() { c.inReset = false }

// Drive stages v onto r, tagging any fault with the current cycle index.
// Settle logic should prefer this over Register.SetPending so that
// multiple-driver faults carry the cycle at which they occurred.
//
func (c *Circuit) Drive(r *Register, v Word) error {
	if r == nil {
		return &CycleError{Cycle: c.cycle, Register: "?", Reason: "drive of undeclared register"}
	}
	if err := r.SetPending(v); err != nil {
		return &CycleError{Cycle: c.cycle, Register: r.name, Reason: err.Error()}
	}
	return nil
}

// Step advances the simulation by one clock cycle: Settle then Commit.
// While reset is held, registers stay forced at their constants and no
// settle logic runs. A settle error aborts the cycle's commit, dropping
// every pending value, and is returned to the caller; the circuit is not
// usable for further cycles after a fault.
//
func (c *Circuit) Step() error {
	if c.inReset {
		for _, r := range c.regs {
			r.forceReset()
		}
		c.cycle++
		return nil
	}
	for _, f := range c.comps {
		if err := f(c); err != nil {
			for _, r := range c.regs {
				r.drop()
			}
			return errors.Wrap(err, c.name+": settle aborted")
		}
	}
	for _, r := range c.regs {
		r.commit()
	}
	c.cycle++
	return nil
}

// Snapshot returns the committed value of every register, keyed by name.
// It is the observability interface for test harnesses: taken after Step,
// it reflects exactly the state the next cycle will settle against.
//
func (c *Circuit) Snapshot() map[string]Word {
	m := make(map[string]Word, len(c.regs))
	for _, r := range c.regs {
		m[r.name] = r.cur
	}
	return m
}
