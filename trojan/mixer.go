// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trojan

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// PayloadMixer combines two wide observations, a monitor value and a target
// value, into a payload substituted wholesale for a host output register.
// The combine is stateless; rarity comes entirely from the host-side
// activation predicate.
//
//	Inputs:  monitor[w], target[w]
//	Outputs: payload[w]
//
type PayloadMixer struct {
	core
	width uint
}

// NewPayloadMixer returns a mixer for w-bit streams.
//
func NewPayloadMixer(name string, w uint) (*PayloadMixer, error) {
	if name == "" {
		name = "mixer"
	}
	if w < 2 || w > trogen.MaxWidth {
		return nil, trogen.Configf(name, "stream width %d out of range [2,%d]", w, trogen.MaxWidth)
	}
	t := &PayloadMixer{
		core: newCore(name,
			[]trogen.Port{{Name: "monitor", Width: w}, {Name: "target", Width: w}},
			[]trogen.Port{{Name: "payload", Width: w}},
		),
		width: w,
	}
	return t, nil
}

// Settle mixes monitor and target into the payload.
func (t *PayloadMixer) Settle(*trogen.Circuit) error {
	mon := t.input("monitor")
	tgt := t.input("target")
	t.setOutput("payload", mon.RotL(t.width/2).Xor(tgt).Add(mon))
	return nil
}
