// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trogen

// A Predicate is a per-cycle boolean condition evaluated during Settle
// against committed state: an entropy tap's activity condition or an
// injection tap's activation condition.
//
type Predicate func() bool

// Always is the activation predicate of always-on trojan archetypes (the
// continuous leak cores). Keeping it an ordinary Predicate keeps the
// activation evaluator uniform across all archetypes.
var Always Predicate = func() bool { return true }

// Never deactivates a tap. Used by golden reference hosts.
var Never Predicate = func() bool { return false }

// And returns a predicate holding when every operand holds.
func And(ps ...Predicate) Predicate {
	return func() bool {
		for _, p := range ps {
			if !p() {
				return false
			}
		}
		return true
	}
}

// Or returns a predicate holding when any operand holds.
func Or(ps ...Predicate) Predicate {
	return func() bool {
		for _, p := range ps {
			if p() {
				return true
			}
		}
		return false
	}
}

// A CombineOp tells an injection tap how to fold the trojan payload into
// the host's legitimate output value.
type CombineOp int

const (
	// CombineXor XORs the payload onto the legitimate value.
	CombineXor CombineOp = iota
	// CombineReplace substitutes the payload wholesale.
	CombineReplace
	// CombineRotate rotates the legitimate value left by the payload's
	// low bits. The payload width is unconstrained for this op.
	CombineRotate
)

func (op CombineOp) String() string {
	switch op {
	case CombineXor:
		return "xor"
	case CombineReplace:
		return "replace"
	case CombineRotate:
		return "rotate"
	}
	return "combine(?)"
}

// An EntropyTap is a static, read-only binding from a slice of a host
// register to a trojan input. It samples committed (pre-cycle) state only,
// and only while its activity condition holds; an idle tap holds its last
// sample so key and pattern generators freeze when the host is idle.
//
type EntropyTap struct {
	src  *Register
	hi   uint
	lo   uint
	when Predicate
	last Word
}

// NewEntropyTap binds bits hi..lo of src. The range must fit the register;
// a bad range is a configuration error, never clamped.
//
func NewEntropyTap(src *Register, hi, lo uint, when Predicate) (*EntropyTap, error) {
	if src == nil {
		return nil, Configf("entropy tap", "nil source register")
	}
	if hi < lo || hi >= src.Width() {
		return nil, Configf("entropy tap", "range [%d:%d] out of range for register %q (width %d)", hi, lo, src.Name(), src.Width())
	}
	if when == nil {
		when = Always
	}
	return &EntropyTap{src: src, hi: hi, lo: lo, when: when, last: W(hi-lo+1, 0)}, nil
}

// Width returns the tapped bit count.
func (t *EntropyTap) Width() uint { return t.hi - t.lo + 1 }

// Source returns the tapped register.
func (t *EntropyTap) Source() *Register { return t.src }

// Sample returns the tapped bits of the committed source value when the
// activity condition holds, else the previous sample. Call once per Settle.
//
func (t *EntropyTap) Sample() Word {
	if t.when() {
		t.last = t.src.Value().Slice(t.hi, t.lo)
	}
	return t.last
}

// An InjectTarget distinguishes the two legitimate injection points a host
// shell exposes: a data output register, or the host's own reset line. The
// reset line is the sole control-signal target; it exists for the
// pattern-triggered reset-pulse trojan class and nothing else.
type InjectTarget int

const (
	// TargetOutput substitutes into an externally observed output register.
	TargetOutput InjectTarget = iota
	// TargetReset pulses the host's synchronous reset for one cycle.
	TargetReset
)

// An InjectionTap is a static binding from a trojan output to a host output
// register (or the host reset line), gated by an activation predicate.
// Injection only ever alters the externally observed output; the host
// commits its legitimate next state regardless, so the peripheral keeps
// performing its nominal function whether or not the trigger held.
//
type InjectionTap struct {
	target  *Register // nil when kind == TargetReset
	kind    InjectTarget
	combine CombineOp
	when    Predicate
}

// NewInjectionTap binds a data-output injection point.
//
func NewInjectionTap(target *Register, combine CombineOp, when Predicate) (*InjectionTap, error) {
	if target == nil {
		return nil, Configf("injection tap", "undeclared injection target")
	}
	if when == nil {
		return nil, Configf("injection tap", "nil activation predicate for register %q", target.Name())
	}
	return &InjectionTap{target: target, kind: TargetOutput, combine: combine, when: when}, nil
}

// NewResetTap binds the host's reset line as the injection point.
//
func NewResetTap(when Predicate) (*InjectionTap, error) {
	if when == nil {
		return nil, Configf("injection tap", "nil activation predicate for reset line")
	}
	return &InjectionTap{kind: TargetReset, combine: CombineReplace, when: when}, nil
}

// Kind returns the injection target class.
func (t *InjectionTap) Kind() InjectTarget { return t.kind }

// Target returns the bound output register (nil for TargetReset).
func (t *InjectionTap) Target() *Register { return t.target }

// Combine returns the payload combine operation.
func (t *InjectionTap) Combine() CombineOp { return t.combine }

// Active evaluates the activation predicate for this cycle.
func (t *InjectionTap) Active() bool { return t.when() }

// CheckPayload verifies at bind time that a trojan output of the given
// width may drive this tap. Xor and Replace require an exact width match;
// rotation consumes the payload as a shift count and accepts any width.
//
func (t *InjectionTap) CheckPayload(width uint) error {
	if t.kind == TargetReset {
		if width != 1 {
			return Configf("injection tap", "reset line needs a 1-bit payload, got %d", width)
		}
		return nil
	}
	if t.combine == CombineRotate {
		return nil
	}
	if width != t.target.Width() {
		return Configf("injection tap", "payload width %d != target %q width %d", width, t.target.Name(), t.target.Width())
	}
	return nil
}

// Apply folds the payload into the legitimate output value. Width
// compatibility was established by CheckPayload at bind time.
//
func (t *InjectionTap) Apply(legit, payload Word) Word {
	switch t.combine {
	case CombineXor:
		return legit.Xor(payload)
	case CombineReplace:
		return payload
	case CombineRotate:
		return legit.RotL(uint(payload.Uint64()))
	}
	return legit
}
