// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trojan defines the behavioral contract of trojan cores and the
// concrete behavior classes woven into host peripherals. A trojan is a
// narrow-interface sub-circuit: it reads a declared input vector fed by
// entropy taps, keeps at most a small private clocked state, and offers a
// declared output vector. It never owns or mutates a host register.
//
package trojan

import (
	"github.com/pkg/errors"

	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// An Archetype identifies a trojan behavior class by its trigger and
// payload structure.
type Archetype int

const (
	// KeyLeakCore continuously folds a wide key through a feedback
	// register; always active, used for low-bandwidth leakage.
	KeyLeakCore Archetype = iota + 1
	// SequenceTriggerCore matches a single-bit input stream against a
	// fixed bit subsequence.
	SequenceTriggerCore
	// ResetPulseCore counts pattern matches and emits a one-cycle reset
	// pulse into the host's reset line.
	ResetPulseCore
	// CorruptorCore passes data through unchanged unless its trigger
	// condition holds, then substitutes a deterministic corruption.
	CorruptorCore
	// WideLeakCore is the parameterizable-width analogue of KeyLeakCore.
	WideLeakCore
	// PayloadMixerCore combines a monitor and a target input into a wide
	// payload substituted wholesale for a host output.
	PayloadMixerCore
	// BusSelectCore perturbs address decoding with a narrow select
	// corruption derived from address, data and an observation input.
	BusSelectCore
	// ByteMapperCore maps five narrow inputs through fixed masks selected
	// by a 3-bit mode into a 16-bit output.
	ByteMapperCore
	// VecMapperCore is structurally ByteMapperCore with a 2-bit mode
	// encoding, reused across arithmetic-pipeline hosts.
	VecMapperCore
	// reservedCore is the unassigned tenth class; requesting it reports
	// an unsupported archetype.
	reservedCore
)

func (a Archetype) String() string {
	switch a {
	case KeyLeakCore:
		return "key-leak"
	case SequenceTriggerCore:
		return "sequence-trigger"
	case ResetPulseCore:
		return "reset-pulse"
	case CorruptorCore:
		return "corruptor"
	case WideLeakCore:
		return "wide-leak"
	case PayloadMixerCore:
		return "payload-mixer"
	case BusSelectCore:
		return "bus-select"
	case ByteMapperCore:
		return "byte-mapper"
	case VecMapperCore:
		return "vec-mapper"
	}
	return "archetype(?)"
}

// Trojan is the contract every core implements. The host shell copies
// tapped values onto the inputs each settle phase, then calls Settle, which
// must compute every output unconditionally (trojan activity stays
// statistically smooth whether or not injection will use the result) and
// may stage updates to the core's private registers.
//
type Trojan interface {
	Name() string
	Inputs() []trogen.Port
	Outputs() []trogen.Port

	// Attach declares the core's private state registers on the host's
	// circuit. Called once, before any cycle.
	Attach(c *trogen.Circuit) error

	// SetInput places a tapped value on a declared input. The value width
	// must match the port declaration exactly.
	SetInput(name string, v trogen.Word) error

	// Output returns the value last computed for a declared output.
	Output(name string) trogen.Word

	// Settle evaluates the core against its inputs and committed private
	// state.
	Settle(c *trogen.Circuit) error
}

// Params carries the construction knobs shared across archetypes. Fields
// irrelevant to a given archetype are ignored by its constructor; fields it
// requires are validated there.
type Params struct {
	Name       string
	Width      uint   // data/payload width for parameterizable cores
	KeyWidth   uint   // key input width for the leak cores
	Pattern    uint64 // trigger pattern (sequence, magic constant)
	PatternLen uint   // trigger pattern length in bits
	Count      uint64 // match count threshold for the reset-pulse core
	Mask       uint64 // corruption constant for the corruptor core
	Mode       uint   // mode select for the mapper cores
}

// New constructs a core of the given archetype.
//
func New(a Archetype, p Params) (Trojan, error) {
	switch a {
	case KeyLeakCore:
		return NewKeyLeak(p.Name)
	case SequenceTriggerCore:
		return NewSequenceTrigger(p.Name, p.Pattern, p.PatternLen)
	case ResetPulseCore:
		return NewResetPulse(p.Name, p.Pattern, p.PatternLen, p.Count)
	case CorruptorCore:
		return NewCorruptor(p.Name, p.Width, p.Pattern, p.Mask)
	case WideLeakCore:
		return NewWideLeak(p.Name, p.KeyWidth)
	case PayloadMixerCore:
		return NewPayloadMixer(p.Name, p.Width)
	case BusSelectCore:
		return NewBusSelect(p.Name, p.Width)
	case ByteMapperCore:
		return NewByteMapper(p.Name, p.Mode)
	case VecMapperCore:
		return NewVecMapper(p.Name, p.Mode)
	}
	return nil, errors.Wrapf(trogen.ErrUnsupportedArchetype, "archetype %d", int(a))
}

// core is the shared input/output plumbing embedded by every archetype.
type core struct {
	name string
	ins  []trogen.Port
	outs []trogen.Port
	in   map[string]trogen.Word
	out  map[string]trogen.Word
}

func newCore(name string, ins, outs []trogen.Port) core {
	c := core{
		name: name,
		ins:  ins,
		outs: outs,
		in:   make(map[string]trogen.Word, len(ins)),
		out:  make(map[string]trogen.Word, len(outs)),
	}
	for _, p := range ins {
		c.in[p.Name] = trogen.W(p.Width, 0)
	}
	for _, p := range outs {
		c.out[p.Name] = trogen.W(p.Width, 0)
	}
	return c
}

func (c *core) Name() string                 { return c.name }
func (c *core) Inputs() []trogen.Port        { return c.ins }
func (c *core) Outputs() []trogen.Port       { return c.outs }
func (c *core) Attach(*trogen.Circuit) error { return nil }

func (c *core) SetInput(name string, v trogen.Word) error {
	cur, ok := c.in[name]
	if !ok {
		return trogen.Configf(c.name, "no input port %q", name)
	}
	if v.Width() != cur.Width() {
		return trogen.Configf(c.name, "input %q: width %d != declared %d", name, v.Width(), cur.Width())
	}
	c.in[name] = v
	return nil
}

func (c *core) Output(name string) trogen.Word { return c.out[name] }

func (c *core) input(name string) trogen.Word { return c.in[name] }

func (c *core) setOutput(name string, v trogen.Word) { c.out[name] = v }
