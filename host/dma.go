// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package host

import (
	"fmt"

	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/keystream"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trojan"
)

// DMAParams sizes a DMA engine host.
type DMAParams struct {
	MemWords uint // local buffer size
	Width    uint // word width
}

// DMA is a descriptor-driven copy engine: a start command latches source
// offset, destination address, length and channel, then the engine streams
// one bus write transaction per two cycles (fetch, emit) from its local
// buffer. The bus side (addr_out/data_out/wvalid/ch_sel) is the externally
// observed surface; the local buffer is preloaded through poke writes.
//
//	Inputs:  poke, poke_addr, poke_data, start, src, dst, len, ch
//	Outputs: addr_out, data_out, wvalid, ch_sel, done
//	States:  idle, fetch, emit, finish
//
type DMA struct {
	*Shell
	p DMAParams
}

// NewDMA builds a golden DMA engine.
//
func NewDMA(name string, p DMAParams) (*DMA, error) {
	if p.MemWords < 2 || p.MemWords > 256 {
		return nil, trogen.Configf(name, "buffer size %d out of range [2,256]", p.MemWords)
	}
	if p.Width == 0 || p.Width > 64 {
		return nil, trogen.Configf(name, "word width %d out of range [1,64]", p.Width)
	}
	sh, err := NewShell(name, []string{"idle", "fetch", "emit", "finish"}, "idle")
	if err != nil {
		return nil, err
	}

	mem := make([]*trogen.Register, p.MemWords)
	for i := range mem {
		if mem[i], err = sh.Reg(fmt.Sprintf("mem%d", i), p.Width, 0); err != nil {
			return nil, err
		}
	}
	src, err := sh.Reg("src", 16, 0)
	if err != nil {
		return nil, err
	}
	dst, err := sh.Reg("dst", 16, 0)
	if err != nil {
		return nil, err
	}
	length, err := sh.Reg("len", 16, 0)
	if err != nil {
		return nil, err
	}
	chreg, err := sh.Reg("ch", 4, 0)
	if err != nil {
		return nil, err
	}
	idx, err := sh.Reg("idx", 16, 0)
	if err != nil {
		return nil, err
	}
	hold, err := sh.Reg("hold", p.Width, 0)
	if err != nil {
		return nil, err
	}
	addrOut, err := sh.Output("addr_out", 16, 0)
	if err != nil {
		return nil, err
	}
	dataOut, err := sh.Output("data_out", p.Width, 0)
	if err != nil {
		return nil, err
	}
	wvalid, err := sh.Output("wvalid", 1, 0)
	if err != nil {
		return nil, err
	}
	chSel, err := sh.Output("ch_sel", 4, 0)
	if err != nil {
		return nil, err
	}
	done, err := sh.Output("done", 1, 0)
	if err != nil {
		return nil, err
	}

	d := &DMA{Shell: sh, p: p}
	sh.OnSettle(func(sh *Shell) error {
		c := sh.Circuit()

		// poke writes preload the local buffer; honored only while idle so
		// the copy stream owns the buffer during a transfer.
		if sh.State() == "idle" && sh.InBit("poke") {
			slot := sh.In("poke_addr") % uint64(p.MemWords)
			if err := c.Drive(mem[slot], sh.InWord("poke_data", p.Width)); err != nil {
				return err
			}
		}

		switch sh.State() {
		case "idle":
			if err := c.Drive(done, bitW(false)); err != nil {
				return err
			}
			if sh.InBit("start") && sh.In("len") > 0 {
				if err := c.Drive(src, sh.InWord("src", 16)); err != nil {
					return err
				}
				if err := c.Drive(dst, sh.InWord("dst", 16)); err != nil {
					return err
				}
				if err := c.Drive(length, sh.InWord("len", 16)); err != nil {
					return err
				}
				if err := c.Drive(chreg, sh.InWord("ch", 4)); err != nil {
					return err
				}
				if err := c.Drive(idx, trogen.W(16, 0)); err != nil {
					return err
				}
				return sh.SetState("fetch")
			}
			return sh.SetState("idle")

		case "fetch":
			slot := (src.Value().Uint64() + idx.Value().Uint64()) % uint64(p.MemWords)
			if err := c.Drive(hold, mem[slot].Value()); err != nil {
				return err
			}
			if err := sh.Feed("data", mem[slot].Value()); err != nil {
				return err
			}
			if err := c.Drive(wvalid, bitW(false)); err != nil {
				return err
			}
			return sh.SetState("emit")

		case "emit":
			i := idx.Value().Uint64()
			if err := c.Drive(addrOut, dst.Value().AddUint64(i)); err != nil {
				return err
			}
			if err := c.Drive(dataOut, hold.Value()); err != nil {
				return err
			}
			if err := c.Drive(wvalid, bitW(true)); err != nil {
				return err
			}
			if err := c.Drive(chSel, chreg.Value()); err != nil {
				return err
			}
			if err := c.Drive(idx, idx.Value().AddUint64(1)); err != nil {
				return err
			}
			if i+1 >= length.Value().Uint64() {
				return sh.SetState("finish")
			}
			return sh.SetState("fetch")

		case "finish":
			if err := c.Drive(wvalid, bitW(false)); err != nil {
				return err
			}
			if err := c.Drive(done, bitW(true)); err != nil {
				return err
			}
			return sh.SetState("idle")
		}
		return nil
	})
	return d, nil
}

// AttachBusSelect weaves the bus-influence core into channel arbitration:
// its 4-bit select corruption is XORed onto ch_sel on emitting cycles where
// the keystream's low byte matches the magic constant, steering the write
// burst to the wrong channel.
//
func (d *DMA) AttachBusSelect(magic uint8, seed uint64) error {
	moving := d.InState("fetch", "emit")
	if err := d.UseKeystream(keystream.Config{Width: 16, Seed: seed}, "", moving); err != nil {
		return err
	}
	t, err := trojan.NewBusSelect(d.Name()+".bussel", d.p.Width)
	if err != nil {
		return err
	}
	rare := func() bool { return d.Keystream().Value().Slice(7, 0).EqUint64(uint64(magic)) }
	return d.Bind(t,
		[]EntropySpec{
			{Port: "addr", Source: "dst", When: moving},
			{Port: "obs", Source: "ks[15:8]", When: moving},
		},
		[]string{"data"},
		[]InjectSpec{{
			Port:    "sel",
			Target:  "ch_sel",
			Combine: trogen.CombineXor,
			When:    trogen.And(d.InState("emit"), rare),
		}},
	)
}

// AttachByteMapper weaves the 3-bit-mode combinational mapper into the bus
// address path: its 16-bit output is XORed onto addr_out while emitting,
// whenever the keystream's top nibble is zero.
//
func (d *DMA) AttachByteMapper(mode uint, seed uint64) error {
	moving := d.InState("fetch", "emit")
	if err := d.UseKeystream(keystream.Config{Width: 24, Seed: seed}, "", moving); err != nil {
		return err
	}
	t, err := trojan.NewByteMapper(d.Name()+".bytemap", mode)
	if err != nil {
		return err
	}
	rare := func() bool { return d.Keystream().Value().Slice(23, 20).IsZero() }
	return d.Bind(t,
		[]EntropySpec{
			{Port: "in0", Source: "ks[3:0]", When: moving},
			{Port: "in1", Source: "ks[7:4]", When: moving},
			{Port: "in2", Source: "ks[11:8]", When: moving},
			{Port: "in3", Source: "ks[15:12]", When: moving},
			{Port: "in4", Source: "ks[19:16]", When: moving},
		},
		nil,
		[]InjectSpec{{
			Port:    "out",
			Target:  "addr_out",
			Combine: trogen.CombineXor,
			When:    trogen.And(d.InState("emit"), rare),
		}},
	)
}
