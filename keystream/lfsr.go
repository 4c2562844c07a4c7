// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

// Package keystream implements the linear-feedback shift registers that
// feed pseudo-random entropy to trojan cores. Each host instance owns its
// own generator; there is no shared pattern register across instances.
//
package keystream

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// Form selects the LFSR feedback structure.
type Form int

const (
	// Fibonacci XORs the tap bits into the serial input.
	Fibonacci Form = iota
	// Galois XORs the feedback polynomial into the register when the
	// output bit is set.
	Galois
)

// Config parameterizes a generator.
type Config struct {
	Name  string
	Width uint
	Taps  []uint // tap bit positions; nil selects DefaultTaps(Width)
	Seed  uint64
	Form  Form
}

// DefaultTaps returns a maximal-length tap set for common widths. The
// returned slice is nil for widths without a table entry, which New rejects.
//
func DefaultTaps(width uint) []uint {
	switch width {
	case 4:
		return []uint{3, 2}
	case 8:
		return []uint{7, 5, 4, 3}
	case 16:
		return []uint{15, 14, 12, 3}
	case 24:
		return []uint{23, 22, 21, 16}
	case 32:
		return []uint{31, 21, 1, 0}
	case 64:
		return []uint{63, 62, 60, 59}
	}
	return nil
}

// A Generator is a clocked LFSR living inside a host's circuit. Its state
// register follows the same settle/commit discipline as every host
// register, so trojan inputs tapped from it always observe the previous
// cycle's committed keystream.
//
type Generator struct {
	cfg   Config
	poly  trogen.Word
	state *trogen.Register
}

// New validates the configuration. The generator holds no circuit state
// until Attach.
//
func New(cfg Config) (*Generator, error) {
	if cfg.Name == "" {
		cfg.Name = "ks"
	}
	if cfg.Width == 0 || cfg.Width > 64 {
		return nil, trogen.Configf(cfg.Name, "keystream width %d out of range [1,64]", cfg.Width)
	}
	if cfg.Taps == nil {
		cfg.Taps = DefaultTaps(cfg.Width)
		if cfg.Taps == nil {
			return nil, trogen.Configf(cfg.Name, "no default taps for width %d, specify Taps", cfg.Width)
		}
	}
	poly := trogen.W(cfg.Width, 0)
	for _, t := range cfg.Taps {
		if t >= cfg.Width {
			return nil, trogen.Configf(cfg.Name, "tap bit %d out of range for width %d", t, cfg.Width)
		}
		poly = poly.Or(trogen.W(cfg.Width, 1).Lsh(t))
	}
	if trogen.W(cfg.Width, cfg.Seed).IsZero() {
		return nil, trogen.Configf(cfg.Name, "seed is zero within width %d, generator would lock up", cfg.Width)
	}
	return &Generator{cfg: cfg, poly: poly}, nil
}

// Attach declares the generator's state register on c. The register is
// named after the generator, so host tap descriptors can slice it like any
// other register ("ks[7:0]").
//
func (g *Generator) Attach(c *trogen.Circuit) error {
	r, err := c.Register(g.cfg.Name, g.cfg.Width, g.cfg.Seed)
	if err != nil {
		return err
	}
	g.state = r
	return nil
}

// Register returns the attached state register (nil before Attach).
func (g *Generator) Register() *trogen.Register { return g.state }

// Value returns the committed keystream state.
func (g *Generator) Value() trogen.Word { return g.state.Value() }

// next computes one shift from cur, folding in tapped host entropy.
func (g *Generator) next(cur, entropy trogen.Word) trogen.Word {
	var nxt trogen.Word
	switch g.cfg.Form {
	case Galois:
		out := cur.Bit(0)
		nxt = cur.Rsh(1)
		if out {
			nxt = nxt.Xor(g.poly)
		}
	default: // Fibonacci
		fb := parity(cur.And(g.poly))
		nxt = cur.Lsh(1)
		if fb {
			nxt = nxt.Or(trogen.W(g.cfg.Width, 1))
		}
	}
	if !entropy.IsZero() {
		nxt = nxt.Xor(entropy.Resize(g.cfg.Width))
	}
	return nxt
}

// Component returns the settle-phase logic advancing the generator. The
// entropy callback supplies tapped host bits (it may be nil); the generator
// only shifts while active holds, reproducing the freeze-on-idle behavior
// of the pattern registers it models.
//
func (g *Generator) Component(entropy func() trogen.Word, active trogen.Predicate) trogen.Component {
	if active == nil {
		active = trogen.Always
	}
	return func(c *trogen.Circuit) error {
		if !active() {
			return nil
		}
		e := trogen.W(g.cfg.Width, 0)
		if entropy != nil {
			e = entropy()
		}
		return c.Drive(g.state, g.next(g.state.Value(), e))
	}
}

// parity returns the XOR of all bits of w.
func parity(w trogen.Word) bool {
	p := false
	for i := uint(0); i < w.Width(); i++ {
		if w.Bit(i) {
			p = !p
		}
	}
	return p
}
