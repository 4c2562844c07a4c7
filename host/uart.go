// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package host

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/keystream"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trojan"
)

// UARTParams sizes a UART transmitter host.
type UARTParams struct {
	BaudDiv uint64 // clock cycles per bit time
}

// UART is an 8N1 serial transmitter host: one start bit, eight data bits
// lsb-first, one stop bit, each held for BaudDiv cycles.
//
//	Inputs:  tx_start, tx_data
//	Outputs: tx, busy, done
//	States:  idle, start, data, stop
//
type UART struct {
	*Shell
	p UARTParams
}

// NewUART builds a golden UART transmitter.
//
func NewUART(name string, p UARTParams) (*UART, error) {
	if p.BaudDiv == 0 {
		return nil, trogen.Configf(name, "zero baud divisor")
	}
	sh, err := NewShell(name, []string{"idle", "start", "data", "stop"}, "idle")
	if err != nil {
		return nil, err
	}

	shift, err := sh.Reg("shift", 8, 0)
	if err != nil {
		return nil, err
	}
	bitcnt, err := sh.Reg("bitcnt", 4, 0)
	if err != nil {
		return nil, err
	}
	baud, err := sh.Reg("baud", 16, 0)
	if err != nil {
		return nil, err
	}
	tx, err := sh.Output("tx", 1, 1) // line idles high
	if err != nil {
		return nil, err
	}
	busy, err := sh.Output("busy", 1, 0)
	if err != nil {
		return nil, err
	}
	done, err := sh.Output("done", 1, 0)
	if err != nil {
		return nil, err
	}

	u := &UART{Shell: sh, p: p}
	sh.OnSettle(func(sh *Shell) error {
		c := sh.Circuit()
		wrap := baud.Value().Uint64() == p.BaudDiv-1

		switch sh.State() {
		case "idle":
			if sh.InBit("tx_start") {
				if err := c.Drive(shift, sh.InWord("tx_data", 8)); err != nil {
					return err
				}
				if err := c.Drive(baud, trogen.W(16, 0)); err != nil {
					return err
				}
				if err := c.Drive(busy, bitW(true)); err != nil {
					return err
				}
				if err := c.Drive(done, bitW(false)); err != nil {
					return err
				}
				if err := c.Drive(tx, bitW(false)); err != nil { // start bit
					return err
				}
				return sh.SetState("start")
			}
			if err := c.Drive(done, bitW(false)); err != nil {
				return err
			}
			return sh.SetState("idle")

		case "start":
			if wrap {
				if err := c.Drive(baud, trogen.W(16, 0)); err != nil {
					return err
				}
				if err := c.Drive(bitcnt, trogen.W(4, 0)); err != nil {
					return err
				}
				if err := c.Drive(tx, shift.Value().Slice(0, 0)); err != nil {
					return err
				}
				return sh.SetState("data")
			}
			return c.Drive(baud, baud.Value().AddUint64(1))

		case "data":
			if !wrap {
				return c.Drive(baud, baud.Value().AddUint64(1))
			}
			if err := c.Drive(baud, trogen.W(16, 0)); err != nil {
				return err
			}
			n := bitcnt.Value().Uint64()
			if n == 7 {
				if err := c.Drive(tx, bitW(true)); err != nil { // stop bit
					return err
				}
				return sh.SetState("stop")
			}
			next := shift.Value().Rsh(1)
			if err := c.Drive(shift, next); err != nil {
				return err
			}
			if err := c.Drive(bitcnt, bitcnt.Value().AddUint64(1)); err != nil {
				return err
			}
			return c.Drive(tx, next.Slice(0, 0))

		case "stop":
			if !wrap {
				return c.Drive(baud, baud.Value().AddUint64(1))
			}
			if err := c.Drive(busy, bitW(false)); err != nil {
				return err
			}
			if err := c.Drive(done, bitW(true)); err != nil {
				return err
			}
			return sh.SetState("idle")
		}
		return nil
	})
	return u, nil
}

// AttachLineGlitch weaves a rare-bit sequence trigger into the serial line:
// the trigger samples one keystream bit per cycle and, on the cycle its
// k-bit window matches pattern, the tx line bit is inverted. The keystream
// folds the shift register into its feedback and freezes while the
// transmitter idles.
//
func (u *UART) AttachLineGlitch(pattern uint64, k uint, seed uint64) error {
	sending := u.InState("start", "data", "stop")
	if err := u.UseKeystream(keystream.Config{Width: 16, Seed: seed}, "shift[7:0]", sending); err != nil {
		return err
	}
	t, err := trojan.NewSequenceTrigger(u.Name()+".seqtrig", pattern, k)
	if err != nil {
		return err
	}
	trig := func() bool { return !t.Output("trigger").IsZero() }
	return u.Bind(t,
		[]EntropySpec{{Port: "bit", Source: "ks[0]", When: sending}},
		nil,
		[]InjectSpec{{
			Port:    "trigger",
			Target:  "tx",
			Combine: trogen.CombineXor,
			When:    trogen.And(u.InState("data"), trig),
		}},
	)
}
