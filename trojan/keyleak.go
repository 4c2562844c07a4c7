// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trojan

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// KeyLeak is the fixed 64-bit keyed-feedback leak core. The key input is
// folded through an internal feedback register every cycle; the load output
// is a deterministic function of recent key history. There is no discrete
// trigger: hosts bind it with an always-true activation predicate.
//
//	Inputs:  key[64]
//	Outputs: load[64]
//
type KeyLeak struct {
	core
	fb *trogen.Register
}

// NewKeyLeak returns a key-leak core.
//
func NewKeyLeak(name string) (*KeyLeak, error) {
	if name == "" {
		name = "keyleak"
	}
	t := &KeyLeak{
		core: newCore(name,
			[]trogen.Port{{Name: "key", Width: 64}},
			[]trogen.Port{{Name: "load", Width: 64}},
		),
	}
	return t, nil
}

// Attach declares the feedback register.
func (t *KeyLeak) Attach(c *trogen.Circuit) error {
	r, err := c.Register(t.name+".fb", 64, 0x5a5aa5a5deadbeef)
	if err != nil {
		return err
	}
	t.fb = r
	return nil
}

// Settle folds the key into the feedback register and exposes the mixed
// history on the load output.
func (t *KeyLeak) Settle(c *trogen.Circuit) error {
	key := t.input("key")
	fb := t.fb.Value()
	t.setOutput("load", fb.Xor(key.RotL(17)))
	return c.Drive(t.fb, fb.RotL(1).Xor(key))
}

// WideLeak is the parameterizable-width key-to-leak side channel: the same
// feedback structure as KeyLeak at an arbitrary key width.
//
//	Inputs:  key[w]
//	Outputs: leak[w]
//
type WideLeak struct {
	core
	width uint
	fb    *trogen.Register
}

// NewWideLeak returns a leak core of the given key width.
//
func NewWideLeak(name string, width uint) (*WideLeak, error) {
	if name == "" {
		name = "wideleak"
	}
	if width == 0 || width > trogen.MaxWidth {
		return nil, trogen.Configf(name, "key width %d out of range", width)
	}
	t := &WideLeak{
		core: newCore(name,
			[]trogen.Port{{Name: "key", Width: width}},
			[]trogen.Port{{Name: "leak", Width: width}},
		),
		width: width,
	}
	return t, nil
}

// Attach declares the feedback register.
func (t *WideLeak) Attach(c *trogen.Circuit) error {
	r, err := c.Register(t.name+".fb", t.width, 1)
	if err != nil {
		return err
	}
	t.fb = r
	return nil
}

// Settle advances the feedback register and computes the leak value.
func (t *WideLeak) Settle(c *trogen.Circuit) error {
	key := t.input("key")
	fb := t.fb.Value()
	t.setOutput("leak", fb.Xor(key))
	return c.Drive(t.fb, fb.RotL(1).Xor(key.RotR(t.width/3+1)))
}
