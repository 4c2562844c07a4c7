// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package host

import (
	"fmt"
	"math/bits"

	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/keystream"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trojan"
)

// FIFOParams sizes a FIFO host.
type FIFOParams struct {
	Depth uint // entries
	Width uint // bits per entry
}

// FIFO is a circular-buffer FIFO host with full/empty/overflow/underflow
// flags. Same-cycle read and write are both honored when legal.
//
//	Inputs:  wr_en, rd_en, wdata
//	Outputs: rdata, full, empty, overflow, underflow
//	States:  idle, write, read, readwrite
//
type FIFO struct {
	*Shell
	p FIFOParams
}

// NewFIFO builds an un-trojaned (golden) FIFO host.
//
func NewFIFO(name string, p FIFOParams) (*FIFO, error) {
	if p.Depth < 2 {
		return nil, trogen.Configf(name, "depth %d too small", p.Depth)
	}
	if p.Width == 0 || p.Width > 64 {
		return nil, trogen.Configf(name, "entry width %d out of range [1,64]", p.Width)
	}
	sh, err := NewShell(name, []string{"idle", "write", "read", "readwrite"}, "idle")
	if err != nil {
		return nil, err
	}

	ptrW := uint(bits.Len(uint(p.Depth - 1)))
	if ptrW == 0 {
		ptrW = 1
	}
	cntW := uint(bits.Len(uint(p.Depth)))

	mem := make([]*trogen.Register, p.Depth)
	for i := range mem {
		if mem[i], err = sh.Reg(fmt.Sprintf("mem%d", i), p.Width, 0); err != nil {
			return nil, err
		}
	}
	head, err := sh.Reg("head", ptrW, 0)
	if err != nil {
		return nil, err
	}
	tail, err := sh.Reg("tail", ptrW, 0)
	if err != nil {
		return nil, err
	}
	count, err := sh.Reg("count", cntW, 0)
	if err != nil {
		return nil, err
	}
	rdata, err := sh.Output("rdata", p.Width, 0)
	if err != nil {
		return nil, err
	}
	full, err := sh.Output("full", 1, 0)
	if err != nil {
		return nil, err
	}
	empty, err := sh.Output("empty", 1, 1)
	if err != nil {
		return nil, err
	}
	overflow, err := sh.Output("overflow", 1, 0)
	if err != nil {
		return nil, err
	}
	underflow, err := sh.Output("underflow", 1, 0)
	if err != nil {
		return nil, err
	}

	f := &FIFO{Shell: sh, p: p}
	sh.OnSettle(func(sh *Shell) error {
		c := sh.Circuit()
		cnt := count.Value().Uint64()
		isFull := cnt == uint64(p.Depth)
		isEmpty := cnt == 0
		wrReq, rdReq := sh.InBit("wr_en"), sh.InBit("rd_en")
		wr := wrReq && !isFull
		rd := rdReq && !isEmpty

		if wr {
			slot := tail.Value().Uint64()
			if err := c.Drive(mem[slot], sh.InWord("wdata", p.Width)); err != nil {
				return err
			}
			if err := c.Drive(tail, trogen.W(ptrW, (slot+1)%uint64(p.Depth))); err != nil {
				return err
			}
		}
		if rd {
			slot := head.Value().Uint64()
			rv := mem[slot].Value()
			if err := c.Drive(rdata, rv); err != nil {
				return err
			}
			// the corruptor sits combinationally in the read datapath:
			// it must see the value in flight, not last cycle's rdata.
			if err := sh.Feed("data", rv); err != nil {
				return err
			}
			if err := c.Drive(head, trogen.W(ptrW, (slot+1)%uint64(p.Depth))); err != nil {
				return err
			}
		}

		next := cnt
		if wr {
			next++
		}
		if rd {
			next--
		}
		if err := c.Drive(count, trogen.W(cntW, next)); err != nil {
			return err
		}
		if err := c.Drive(full, bitW(next == uint64(p.Depth))); err != nil {
			return err
		}
		if err := c.Drive(empty, bitW(next == 0)); err != nil {
			return err
		}
		if err := c.Drive(overflow, overflow.Value().Or(bitW(wrReq && isFull))); err != nil {
			return err
		}
		if err := c.Drive(underflow, underflow.Value().Or(bitW(rdReq && isEmpty))); err != nil {
			return err
		}

		switch {
		case wr && rd:
			return sh.SetState("readwrite")
		case wr:
			return sh.SetState("write")
		case rd:
			return sh.SetState("read")
		}
		return sh.SetState("idle")
	})
	return f, nil
}

// AttachReadCorruptor weaves a pass-through corruptor into the FIFO's read
// datapath: the payload replaces rdata, but only in read states and only on
// cycles where the keystream byte sampled while the read was in flight
// equals pattern. The keystream advances only while a read or write is in
// flight, so the pattern generator freezes when the FIFO idles.
//
func (f *FIFO) AttachReadCorruptor(pattern, mask, seed uint64) error {
	busy := func() bool { return f.InBit("wr_en") || f.InBit("rd_en") }
	if err := f.UseKeystream(keystream.Config{Width: 16, Seed: seed}, "", busy); err != nil {
		return err
	}
	t, err := trojan.NewCorruptor(f.Name()+".corruptor", f.p.Width, pattern, mask)
	if err != nil {
		return err
	}
	return f.Bind(t,
		[]EntropySpec{{Port: "trig", Source: "ks[7:0]", When: busy}},
		[]string{"data"},
		[]InjectSpec{{
			Port:    "payload",
			Target:  "rdata",
			Combine: trogen.CombineReplace,
			When:    trogen.And(f.InState("read", "readwrite"), t.Triggered),
		}},
	)
}

// AttachResetPulse weaves a pattern-counting reset-pulse core observing the
// keystream byte; when the byte has matched pattern threshold times, the
// FIFO's reset line is pulsed for one cycle.
//
func (f *FIFO) AttachResetPulse(pattern uint64, threshold, seed uint64) error {
	if err := f.UseKeystream(keystream.Config{Width: 16, Seed: seed}, "", nil); err != nil {
		return err
	}
	t, err := trojan.NewResetPulse(f.Name()+".rstpulse", pattern, 8, threshold)
	if err != nil {
		return err
	}
	return f.Bind(t,
		[]EntropySpec{{Port: "obs", Source: "ks[7:0]"}},
		nil,
		[]InjectSpec{{Port: "pulse", Target: ResetTarget, When: trogen.Always}},
	)
}

// bitW maps a condition to a 1-bit word.
func bitW(b bool) trogen.Word {
	if b {
		return trogen.W(1, 1)
	}
	return trogen.W(1, 0)
}
