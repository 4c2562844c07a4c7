// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package host

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trojan"
)

// CipherParams sizes a block-cipher datapath host.
type CipherParams struct {
	Rounds uint
}

// Cipher is a round-based 64-bit add-rotate-xor block datapath: a load
// command latches plaintext block and key, one round runs per cycle, and
// the ciphertext is presented with valid high for one cycle.
//
//	Inputs:  load, block, key
//	Outputs: ct, valid
//	States:  idle, round, output
//
type Cipher struct {
	*Shell
	p CipherParams
}

// NewCipher builds a golden cipher host.
//
func NewCipher(name string, p CipherParams) (*Cipher, error) {
	if p.Rounds == 0 || p.Rounds > 64 {
		return nil, trogen.Configf(name, "round count %d out of range [1,64]", p.Rounds)
	}
	sh, err := NewShell(name, []string{"idle", "round", "output"}, "idle")
	if err != nil {
		return nil, err
	}

	st, err := sh.Reg("blk", 64, 0)
	if err != nil {
		return nil, err
	}
	key, err := sh.Reg("key", 64, 0)
	if err != nil {
		return nil, err
	}
	rnd, err := sh.Reg("round", 7, 0)
	if err != nil {
		return nil, err
	}
	ct, err := sh.Output("ct", 64, 0)
	if err != nil {
		return nil, err
	}
	valid, err := sh.Output("valid", 1, 0)
	if err != nil {
		return nil, err
	}

	ci := &Cipher{Shell: sh, p: p}
	sh.OnSettle(func(sh *Shell) error {
		c := sh.Circuit()
		switch sh.State() {
		case "idle":
			if err := c.Drive(valid, bitW(false)); err != nil {
				return err
			}
			if sh.InBit("load") {
				if err := c.Drive(st, sh.InWord("block", 64)); err != nil {
					return err
				}
				if err := c.Drive(key, sh.InWord("key", 64)); err != nil {
					return err
				}
				if err := c.Drive(rnd, trogen.W(7, 0)); err != nil {
					return err
				}
				return sh.SetState("round")
			}
			return sh.SetState("idle")

		case "round":
			s, k := st.Value(), key.Value()
			next := s.RotL(5).Xor(k).Add(s.RotR(3))
			if err := c.Drive(st, next); err != nil {
				return err
			}
			if err := c.Drive(key, k.RotL(1)); err != nil {
				return err
			}
			if err := c.Drive(rnd, rnd.Value().AddUint64(1)); err != nil {
				return err
			}
			if rnd.Value().Uint64()+1 == uint64(p.Rounds) {
				if err := c.Drive(ct, next); err != nil {
					return err
				}
				if err := sh.Feed("target", next); err != nil {
					return err
				}
				return sh.SetState("output")
			}
			return sh.SetState("round")

		case "output":
			if err := c.Drive(valid, bitW(true)); err != nil {
				return err
			}
			return sh.SetState("idle")
		}
		return nil
	})
	return ci, nil
}

// AttachKeyLeak weaves the always-active keyed-feedback leak core onto the
// ciphertext output: the leak value, a deterministic function of the round
// key history, is XORed onto ct on every output cycle. No discrete
// trigger exists for this class; rarity is not a goal, low bandwidth is.
//
func (ci *Cipher) AttachKeyLeak() error {
	t, err := trojan.NewKeyLeak(ci.Name() + ".keyleak")
	if err != nil {
		return err
	}
	return ci.Bind(t,
		[]EntropySpec{{Port: "key", Source: "key"}},
		nil,
		[]InjectSpec{{
			Port:    "load",
			Target:  "ct",
			Combine: trogen.CombineXor,
			When:    ci.InState("output"),
		}},
	)
}

// AttachPayloadMixer weaves the dual-stream payload generator across the
// datapath: the round key is monitored through a static tap, the final
// round value is fed in as the target stream, and the mixed payload
// replaces the ciphertext wholesale on output cycles where the low key
// byte is zero.
//
func (ci *Cipher) AttachPayloadMixer() error {
	t, err := trojan.NewPayloadMixer(ci.Name()+".mixer", 64)
	if err != nil {
		return err
	}
	rare := func() bool { return ci.Circuit().Lookup("key").Value().Slice(7, 0).IsZero() }
	return ci.Bind(t,
		[]EntropySpec{{Port: "monitor", Source: "key"}},
		[]string{"target"},
		[]InjectSpec{{
			Port:    "payload",
			Target:  "ct",
			Combine: trogen.CombineReplace,
			When:    trogen.And(ci.InState("output"), rare),
		}},
	)
}
