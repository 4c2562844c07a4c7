// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trojan

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// SequenceTrigger samples a single-bit input stream into an internal shift
// register and asserts its trigger output on the cycle the last k sampled
// bits equal the configured pattern. For a pseudo-random input stream the
// long-run trigger rate is 2^-k.
//
//	Inputs:  bit[1]
//	Outputs: trigger[1]
//
type SequenceTrigger struct {
	core
	pattern trogen.Word
	k       uint
	shift   *trogen.Register
}

// NewSequenceTrigger returns a trigger core matching the low k bits of
// pattern against the input stream.
//
func NewSequenceTrigger(name string, pattern uint64, k uint) (*SequenceTrigger, error) {
	if name == "" {
		name = "seqtrig"
	}
	if k == 0 || k > 64 {
		return nil, trogen.Configf(name, "pattern length %d out of range [1,64]", k)
	}
	t := &SequenceTrigger{
		core: newCore(name,
			[]trogen.Port{{Name: "bit", Width: 1}},
			[]trogen.Port{{Name: "trigger", Width: 1}},
		),
		pattern: trogen.W(k, pattern),
		k:       k,
	}
	return t, nil
}

// Attach declares the shift register.
func (t *SequenceTrigger) Attach(c *trogen.Circuit) error {
	r, err := c.Register(t.name+".shift", t.k, 0)
	if err != nil {
		return err
	}
	t.shift = r
	return nil
}

// Settle shifts in the sampled bit and compares the resulting window
// against the pattern.
func (t *SequenceTrigger) Settle(c *trogen.Circuit) error {
	win := t.shift.Value().Lsh(1).Or(t.input("bit").Resize(t.k))
	trig := uint64(0)
	if win.Eq(t.pattern) {
		trig = 1
	}
	t.setOutput("trigger", trogen.W(1, trig))
	return c.Drive(t.shift, win)
}
