// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

// Package host implements peripheral state machines and the generic shell
// that weaves a trojan core into one: a private register file, a named-state
// FSM, declared entropy and injection taps, and a per-instance keystream
// generator. The shell's Advance method is the only externally callable
// per-cycle operation.
//
package host

import (
	"math/bits"

	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/internal/rangespec"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/keystream"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trojan"
)

// Inputs is one cycle's stimulus: primary input values keyed by name.
// Values wider than a signal's declared width are truncated by the host's
// explicit input adaptation, never by the kernel.
type Inputs map[string]uint64

// Outputs is one cycle's externally observed output values, after any
// injection, keyed by output register name.
type Outputs map[string]trogen.Word

// ResetTarget is the Target name binding an injection tap to the host's
// reset control line instead of a data output.
const ResetTarget = "reset"

// An EntropySpec declares a static read-only binding from a register slice
// to a trojan input port. Source uses range descriptors: "ks[7:0]",
// "shift[3]", "key".
type EntropySpec struct {
	Port   string
	Source string
	When   trogen.Predicate // activity condition; nil means always
}

// An InjectSpec declares a binding from a trojan output port to a declared
// host output register (or ResetTarget), gated by an activation predicate.
type InjectSpec struct {
	Port    string
	Target  string
	Combine trogen.CombineOp
	When    trogen.Predicate
}

type feed struct {
	port string
	tap  *trogen.EntropyTap
}

type inject struct {
	port string
	tap  *trogen.InjectionTap
}

// A Shell is one host instance: an FSM plus a private register file, with
// tap points for exactly one trojan core. Hosts never share registers; a
// shell owns every register of its circuit, including the keystream
// generator's state and the bound trojan's private registers.
//
type Shell struct {
	name     string
	circ     *trogen.Circuit
	states   []string
	stateIdx map[string]uint64
	state    *trogen.Register
	settle   func(sh *Shell) error
	in       Inputs
	outNames []string
	isOut    map[string]bool
	ks       *keystream.Generator
	tro      trojan.Trojan
	feedable map[string]bool
	feeds    []feed
	injects  []inject
	injected bool
	injLog   []uint64
}

// NewShell returns a shell with the given FSM state set. The state register
// resets to the initial state.
//
func NewShell(name string, states []string, initial string) (*Shell, error) {
	if len(states) == 0 {
		return nil, trogen.Configf(name, "empty state set")
	}
	sh := &Shell{
		name:     name,
		circ:     trogen.New(name),
		states:   states,
		stateIdx: make(map[string]uint64, len(states)),
		isOut:    make(map[string]bool),
		feedable: make(map[string]bool),
	}
	for i, s := range states {
		if _, dup := sh.stateIdx[s]; dup {
			return nil, trogen.Configf(name, "duplicate state %q", s)
		}
		sh.stateIdx[s] = uint64(i)
	}
	init, ok := sh.stateIdx[initial]
	if !ok {
		return nil, trogen.Configf(name, "initial state %q not in state set", initial)
	}
	w := uint(bits.Len(uint(len(states) - 1)))
	if w == 0 {
		w = 1
	}
	st, err := sh.circ.Register("state", w, init)
	if err != nil {
		return nil, err
	}
	sh.state = st
	sh.circ.Mount(func(*trogen.Circuit) error {
		if sh.settle == nil {
			return trogen.Configf(sh.name, "no settle function installed")
		}
		return sh.settle(sh)
	})
	return sh, nil
}

// Name returns the host instance name.
func (sh *Shell) Name() string { return sh.name }

// Circuit exposes the underlying scheduler, mainly to tests.
func (sh *Shell) Circuit() *trogen.Circuit { return sh.circ }

// Reg declares a private register.
func (sh *Shell) Reg(name string, width uint, reset uint64) (*trogen.Register, error) {
	return sh.circ.Register(name, width, reset)
}

// Output declares a register that is part of the host's externally observed
// outputs, and therefore a legal injection target.
func (sh *Shell) Output(name string, width uint, reset uint64) (*trogen.Register, error) {
	r, err := sh.circ.Register(name, width, reset)
	if err != nil {
		return nil, err
	}
	sh.outNames = append(sh.outNames, name)
	sh.isOut[name] = true
	return r, nil
}

// OnSettle installs the host's next-state function. It runs first each
// settle phase, against committed values only.
func (sh *Shell) OnSettle(fn func(sh *Shell) error) { sh.settle = fn }

// In returns the current cycle's stimulus value for name (absent inputs
// read as zero, like an undriven input held low).
func (sh *Shell) In(name string) uint64 { return sh.in[name] }

// InBit reports whether the stimulus value for name is nonzero.
func (sh *Shell) InBit(name string) bool { return sh.in[name] != 0 }

// InWord returns the stimulus value for name truncated to width.
func (sh *Shell) InWord(name string, width uint) trogen.Word {
	return trogen.W(width, sh.in[name])
}

// State returns the committed FSM state name.
func (sh *Shell) State() string {
	return sh.states[sh.state.Value().Uint64()]
}

// SetState stages the FSM state for the next commit. Calling it twice in
// one settle phase is a multiple-driver fault.
func (sh *Shell) SetState(next string) error {
	idx, ok := sh.stateIdx[next]
	if !ok {
		return trogen.Configf(sh.name, "undeclared state %q", next)
	}
	return sh.circ.Drive(sh.state, trogen.W(sh.state.Width(), idx))
}

// InState returns a predicate asserting while the committed FSM state is
// one of names. Typical activation predicates gate injection on the one
// architecturally legitimate output state.
func (sh *Shell) InState(names ...string) trogen.Predicate {
	return func() bool {
		cur := sh.State()
		for _, n := range names {
			if n == cur {
				return true
			}
		}
		return false
	}
}

// UseKeystream attaches a per-instance keystream generator. entropySrc, if
// non-empty, is a range descriptor over a declared register whose bits are
// folded into the generator's feedback; active gates advancement so the
// generator freezes while the host is idle. Must precede Bind so tap
// descriptors can reference the generator's register.
//
func (sh *Shell) UseKeystream(cfg keystream.Config, entropySrc string, active trogen.Predicate) error {
	if sh.ks != nil {
		return trogen.Configf(sh.name, "keystream generator already attached")
	}
	g, err := keystream.New(cfg)
	if err != nil {
		return err
	}
	if err := g.Attach(sh.circ); err != nil {
		return err
	}
	var entropy func() trogen.Word
	if entropySrc != "" {
		tap, err := sh.entropyTap(entropySrc, active)
		if err != nil {
			return err
		}
		entropy = tap.Sample
	}
	sh.circ.Mount(g.Component(entropy, active))
	sh.ks = g
	return nil
}

// Keystream returns the attached generator, or nil.
func (sh *Shell) Keystream() *keystream.Generator { return sh.ks }

// entropyTap resolves a range descriptor into a bound tap.
func (sh *Shell) entropyTap(src string, when trogen.Predicate) (*trogen.EntropyTap, error) {
	spec, err := rangespec.Parse(src)
	if err != nil {
		return nil, trogen.Configf(sh.name, "entropy source %q: %v", src, err)
	}
	r := sh.circ.Lookup(spec.Name)
	if r == nil {
		return nil, trogen.Configf(sh.name, "entropy source %q: undeclared register", src)
	}
	hi, lo := spec.Hi, spec.Lo
	if !spec.Sliced {
		hi, lo = r.Width()-1, 0
	}
	return trogen.NewEntropyTap(r, hi, lo, when)
}

// Bound reports whether a trojan core is bound to this shell.
func (sh *Shell) Bound() bool { return sh.tro != nil }

// Trojan returns the bound core, or nil.
func (sh *Shell) Trojan() trojan.Trojan { return sh.tro }

// Bind weaves a trojan core into the shell. Every trojan input port must be
// covered exactly once, either by an EntropySpec (static register tap) or
// by membership in feedPorts (values the host's settle logic copies in with
// Feed, for same-cycle datapath pass-through). Every InjectSpec must name a
// declared output register or ResetTarget. All width checks happen here;
// mismatches fail construction and are never padded.
//
func (sh *Shell) Bind(t trojan.Trojan, entropy []EntropySpec, feedPorts []string, injects []InjectSpec) error {
	if sh.tro != nil {
		return trogen.Configf(sh.name, "trojan %q already bound", sh.tro.Name())
	}
	if t == nil {
		return trogen.Configf(sh.name, "nil trojan")
	}

	ports := make(map[string]uint, len(t.Inputs()))
	for _, p := range t.Inputs() {
		ports[p.Name] = p.Width
	}
	covered := make(map[string]bool, len(ports))

	var feeds []feed
	for _, es := range entropy {
		w, ok := ports[es.Port]
		if !ok {
			return trogen.Configf(sh.name, "entropy spec for unknown input port %q", es.Port)
		}
		if covered[es.Port] {
			return trogen.Configf(sh.name, "input port %q bound twice", es.Port)
		}
		tap, err := sh.entropyTap(es.Source, es.When)
		if err != nil {
			return err
		}
		if tap.Width() != w {
			return trogen.Configf(sh.name, "entropy tap %q is %d bits, input port %q needs %d",
				es.Source, tap.Width(), es.Port, w)
		}
		covered[es.Port] = true
		feeds = append(feeds, feed{port: es.Port, tap: tap})
	}
	for _, p := range feedPorts {
		if _, ok := ports[p]; !ok {
			return trogen.Configf(sh.name, "feed declaration for unknown input port %q", p)
		}
		if covered[p] {
			return trogen.Configf(sh.name, "input port %q bound twice", p)
		}
		covered[p] = true
	}
	for name := range ports {
		if !covered[name] {
			return trogen.Configf(sh.name, "trojan input port %q left unbound", name)
		}
	}

	outPorts := make(map[string]uint, len(t.Outputs()))
	for _, p := range t.Outputs() {
		outPorts[p.Name] = p.Width
	}
	var ijs []inject
	for _, is := range injects {
		w, ok := outPorts[is.Port]
		if !ok {
			return trogen.Configf(sh.name, "inject spec for unknown output port %q", is.Port)
		}
		var tap *trogen.InjectionTap
		var err error
		if is.Target == ResetTarget {
			tap, err = trogen.NewResetTap(is.When)
		} else {
			if !sh.isOut[is.Target] {
				return trogen.Configf(sh.name, "undeclared injection target %q", is.Target)
			}
			tap, err = trogen.NewInjectionTap(sh.circ.Lookup(is.Target), is.Combine, is.When)
		}
		if err != nil {
			return err
		}
		if err := tap.CheckPayload(w); err != nil {
			return err
		}
		ijs = append(ijs, inject{port: is.Port, tap: tap})
	}

	if err := t.Attach(sh.circ); err != nil {
		return err
	}

	sh.tro = t
	sh.feeds = feeds
	sh.injects = ijs
	for _, p := range feedPorts {
		sh.feedable[p] = true
	}
	// entropy feeds run after the host settle but before the trojan
	// settles; all three read committed values only.
	sh.circ.Mount(func(*trogen.Circuit) error {
		for _, f := range sh.feeds {
			if err := sh.tro.SetInput(f.port, f.tap.Sample()); err != nil {
				return err
			}
		}
		return nil
	})
	sh.circ.Mount(func(c *trogen.Circuit) error { return sh.tro.Settle(c) })
	return nil
}

// Feed copies a same-cycle datapath value onto a declared feed port. The
// host's settle logic calls it for pass-through inputs (a corruptor's data
// input must see the value in flight this cycle, not last cycle's output
// register). Feeding is a no-op when no trojan is bound or when the bound
// trojan does not listen on the port, so host settle logic reads the same
// either way — the mere presence of a trojan never perturbs it.
//
func (sh *Shell) Feed(port string, v trogen.Word) error {
	if sh.tro == nil || !sh.feedable[port] {
		return nil
	}
	return sh.tro.SetInput(port, v)
}

// Advance runs one clock cycle against the given stimulus and returns the
// externally observed outputs, with any active injection applied. The host
// commits its legitimate next state regardless of injection.
//
func (sh *Shell) Advance(in Inputs) (Outputs, error) {
	sh.in = in
	if err := sh.circ.Step(); err != nil {
		return nil, err
	}
	outs := make(Outputs, len(sh.outNames))
	for _, o := range sh.outNames {
		outs[o] = sh.circ.Lookup(o).Value()
	}
	sh.injected = false
	resetPulse := false
	for _, ij := range sh.injects {
		if !ij.tap.Active() {
			// the payload was still computed this cycle; a state with no
			// live injection point just discards it.
			continue
		}
		payload := sh.tro.Output(ij.port)
		if ij.tap.Kind() == trogen.TargetReset {
			if !payload.IsZero() {
				resetPulse = true
				sh.injected = true
			}
			continue
		}
		name := ij.tap.Target().Name()
		outs[name] = ij.tap.Apply(outs[name], payload)
		sh.injected = true
	}
	if sh.injected {
		sh.injLog = append(sh.injLog, sh.circ.Cycle()-1)
	}
	if resetPulse {
		sh.circ.AssertReset()
		sh.circ.DeassertReset()
	}
	return outs, nil
}

// Injected reports whether the last Advance applied any injection.
func (sh *Shell) Injected() bool { return sh.injected }

// InjectionCycles returns the cycle indices at which injection occurred.
func (sh *Shell) InjectionCycles() []uint64 {
	out := make([]uint64, len(sh.injLog))
	copy(out, sh.injLog)
	return out
}

// Reset asserts and releases the host's reset line, forcing every register
// to its declared constant.
func (sh *Shell) Reset() {
	sh.circ.AssertReset()
	sh.circ.DeassertReset()
}

// Snapshot returns the committed value of every register in the instance.
func (sh *Shell) Snapshot() map[string]trogen.Word { return sh.circ.Snapshot() }
