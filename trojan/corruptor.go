// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trojan

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// Corruptor is the combinational pass-through corruptor: data flows to the
// payload output unchanged unless the trigger observation equals the magic
// pattern, in which case the XOR constant is folded in. Inversion is the
// all-ones mask; rotation variants are expressed at the injection tap.
//
// The payload is computed every cycle whether or not the host's injection
// predicate will use it, keeping the core's switching activity smooth.
//
//	Inputs:  data[w], trig[8]
//	Outputs: payload[w], trigger[1]
//
type Corruptor struct {
	core
	pattern trogen.Word
	mask    trogen.Word
}

// NewCorruptor returns a corruptor for w-bit data, triggered when the 8-bit
// observation equals pattern, corrupting with data XOR mask.
//
func NewCorruptor(name string, w uint, pattern, mask uint64) (*Corruptor, error) {
	if name == "" {
		name = "corruptor"
	}
	if w == 0 || w > trogen.MaxWidth {
		return nil, trogen.Configf(name, "data width %d out of range", w)
	}
	if mask == 0 {
		return nil, trogen.Configf(name, "zero corruption mask, payload would be transparent")
	}
	t := &Corruptor{
		core: newCore(name,
			[]trogen.Port{{Name: "data", Width: w}, {Name: "trig", Width: 8}},
			[]trogen.Port{{Name: "payload", Width: w}, {Name: "trigger", Width: 1}},
		),
		pattern: trogen.W(8, pattern),
		mask:    trogen.W(w, mask),
	}
	return t, nil
}

// Settle computes the (possibly corrupted) payload and the trigger flag.
func (t *Corruptor) Settle(*trogen.Circuit) error {
	data := t.input("data")
	if t.input("trig").Eq(t.pattern) {
		t.setOutput("payload", data.Xor(t.mask))
		t.setOutput("trigger", trogen.W(1, 1))
	} else {
		t.setOutput("payload", data)
		t.setOutput("trigger", trogen.W(1, 0))
	}
	return nil
}

// Triggered reports whether the last settled cycle matched the pattern.
// Hosts use it as the activation predicate of the payload's injection tap.
func (t *Corruptor) Triggered() bool {
	return !t.Output("trigger").IsZero()
}
