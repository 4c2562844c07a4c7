// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package host

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/keystream"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trojan"
)

// CORDICParams sizes a CORDIC rotator host.
type CORDICParams struct {
	Iterations uint // rotation stages, at most 16
}

// cordicAtan holds atan(2^-i) in the 16-bit fixed-point scale where pi/2
// is 0x4000.
var cordicAtan = [16]uint64{
	0x2000, 0x12e4, 0x09fb, 0x0511,
	0x028b, 0x0146, 0x00a3, 0x0051,
	0x0029, 0x0014, 0x000a, 0x0005,
	0x0003, 0x0001, 0x0001, 0x0000,
}

// CORDIC is an iterative vector rotator in 16-bit two's-complement
// fixed point: a start command latches (x, y, angle), then one rotation
// stage runs per cycle until the configured iteration count.
//
//	Inputs:  start, x_in, y_in, z_in
//	Outputs: x_out, y_out, valid
//	States:  idle, rotate, ready
//
type CORDIC struct {
	*Shell
	p CORDICParams
}

// NewCORDIC builds a golden CORDIC rotator.
//
func NewCORDIC(name string, p CORDICParams) (*CORDIC, error) {
	if p.Iterations == 0 || p.Iterations > 16 {
		return nil, trogen.Configf(name, "iteration count %d out of range [1,16]", p.Iterations)
	}
	sh, err := NewShell(name, []string{"idle", "rotate", "ready"}, "idle")
	if err != nil {
		return nil, err
	}

	x, err := sh.Reg("x", 16, 0)
	if err != nil {
		return nil, err
	}
	y, err := sh.Reg("y", 16, 0)
	if err != nil {
		return nil, err
	}
	z, err := sh.Reg("z", 16, 0)
	if err != nil {
		return nil, err
	}
	it, err := sh.Reg("it", 5, 0)
	if err != nil {
		return nil, err
	}
	xOut, err := sh.Output("x_out", 16, 0)
	if err != nil {
		return nil, err
	}
	yOut, err := sh.Output("y_out", 16, 0)
	if err != nil {
		return nil, err
	}
	valid, err := sh.Output("valid", 1, 0)
	if err != nil {
		return nil, err
	}

	co := &CORDIC{Shell: sh, p: p}
	sh.OnSettle(func(sh *Shell) error {
		c := sh.Circuit()
		switch sh.State() {
		case "idle":
			if err := c.Drive(valid, bitW(false)); err != nil {
				return err
			}
			if sh.InBit("start") {
				if err := c.Drive(x, sh.InWord("x_in", 16)); err != nil {
					return err
				}
				if err := c.Drive(y, sh.InWord("y_in", 16)); err != nil {
					return err
				}
				if err := c.Drive(z, sh.InWord("z_in", 16)); err != nil {
					return err
				}
				if err := c.Drive(it, trogen.W(5, 0)); err != nil {
					return err
				}
				return sh.SetState("rotate")
			}
			return sh.SetState("idle")

		case "rotate":
			i := uint(it.Value().Uint64())
			xv, yv, zv := x.Value(), y.Value(), z.Value()
			dx, dy := yv.Sar(i), xv.Sar(i)
			at := trogen.W(16, cordicAtan[i])
			var nx, ny, nz trogen.Word
			if zv.Bit(15) { // angle negative: rotate clockwise
				nx, ny, nz = xv.Add(dx), yv.Sub(dy), zv.Add(at)
			} else {
				nx, ny, nz = xv.Sub(dx), yv.Add(dy), zv.Sub(at)
			}
			if err := c.Drive(x, nx); err != nil {
				return err
			}
			if err := c.Drive(y, ny); err != nil {
				return err
			}
			if err := c.Drive(z, nz); err != nil {
				return err
			}
			if err := c.Drive(it, it.Value().AddUint64(1)); err != nil {
				return err
			}
			if i+1 == p.Iterations {
				if err := c.Drive(xOut, nx); err != nil {
					return err
				}
				if err := c.Drive(yOut, ny); err != nil {
					return err
				}
				if err := sh.Feed("data", nx); err != nil {
					return err
				}
				return sh.SetState("ready")
			}
			return sh.SetState("rotate")

		case "ready":
			if err := c.Drive(valid, bitW(true)); err != nil {
				return err
			}
			return sh.SetState("idle")
		}
		return nil
	})
	return co, nil
}

// AttachVecMapper weaves the 2-bit-mode mapper into the rotation result
// path: its 16-bit output is XORed onto x_out on result cycles where the
// keystream's top five bits are zero. The keystream folds the angle
// accumulator into its feedback and only advances while rotating.
//
func (co *CORDIC) AttachVecMapper(mode uint, seed uint64) error {
	rotating := co.InState("rotate")
	if err := co.UseKeystream(keystream.Config{Width: 24, Seed: seed}, "z[7:0]", rotating); err != nil {
		return err
	}
	t, err := trojan.NewVecMapper(co.Name()+".vecmap", mode)
	if err != nil {
		return err
	}
	rare := func() bool { return co.Keystream().Value().Slice(23, 19).IsZero() }
	return co.Bind(t,
		[]EntropySpec{
			{Port: "in0", Source: "ks[3:0]", When: rotating},
			{Port: "in1", Source: "ks[7:4]", When: rotating},
			{Port: "in2", Source: "ks[11:8]", When: rotating},
			{Port: "in3", Source: "ks[15:12]", When: rotating},
			{Port: "in4", Source: "ks[19:16]", When: rotating},
		},
		nil,
		[]InjectSpec{{
			Port:    "out",
			Target:  "x_out",
			Combine: trogen.CombineXor,
			When:    trogen.And(co.InState("ready"), rare),
		}},
	)
}
