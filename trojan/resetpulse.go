// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trojan

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// ResetPulse counts cycles on which its observation input equals a magic
// pattern; when the count reaches the configured threshold it emits a
// one-cycle pulse and wraps the counter. It is the one behavior class whose
// injection tap targets the host's reset control line rather than a data
// output, so hosts bind its pulse through a reset-target tap.
//
//	Inputs:  obs[k]
//	Outputs: pulse[1]
//
type ResetPulse struct {
	core
	pattern   trogen.Word
	threshold uint64
	count     *trogen.Register
}

// NewResetPulse returns a reset-pulse core watching for the low k bits of
// pattern, firing after threshold matches.
//
func NewResetPulse(name string, pattern uint64, k uint, threshold uint64) (*ResetPulse, error) {
	if name == "" {
		name = "rstpulse"
	}
	if k == 0 || k > 64 {
		return nil, trogen.Configf(name, "pattern width %d out of range [1,64]", k)
	}
	if threshold == 0 {
		return nil, trogen.Configf(name, "zero match threshold")
	}
	t := &ResetPulse{
		core: newCore(name,
			[]trogen.Port{{Name: "obs", Width: k}},
			[]trogen.Port{{Name: "pulse", Width: 1}},
		),
		pattern:   trogen.W(k, pattern),
		threshold: threshold,
	}
	return t, nil
}

// Attach declares the match counter.
func (t *ResetPulse) Attach(c *trogen.Circuit) error {
	r, err := c.Register(t.name+".count", 32, 0)
	if err != nil {
		return err
	}
	t.count = r
	return nil
}

// Settle advances the match counter and raises the pulse for the single
// cycle the threshold is reached.
func (t *ResetPulse) Settle(c *trogen.Circuit) error {
	cnt := t.count.Value()
	next := cnt
	pulse := uint64(0)
	if t.input("obs").Eq(t.pattern) {
		next = cnt.AddUint64(1)
		if next.EqUint64(t.threshold) {
			pulse = 1
			next = trogen.W(32, 0)
		}
	}
	t.setOutput("pulse", trogen.W(1, pulse))
	return c.Drive(t.count, next)
}
