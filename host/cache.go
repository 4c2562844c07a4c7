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

// CacheParams sizes a cache host.
type CacheParams struct {
	Sets  uint // power of two
	Ways  uint
	TagW  uint
	DataW uint
}

// Cache is a set-associative cache host with tag/valid arrays and
// round-robin replacement. A write allocates; a read miss allocates
// nothing and reports hit=0.
//
//	Inputs:  req, we, addr, wdata
//	Outputs: hit, rdata
//	States:  idle, respond
//
type Cache struct {
	*Shell
	p CacheParams
}

// NewCache builds a golden cache host.
//
func NewCache(name string, p CacheParams) (*Cache, error) {
	if p.Sets == 0 || p.Sets&(p.Sets-1) != 0 {
		return nil, trogen.Configf(name, "set count %d not a power of two", p.Sets)
	}
	if p.Ways == 0 || p.Ways > 8 {
		return nil, trogen.Configf(name, "way count %d out of range [1,8]", p.Ways)
	}
	if p.TagW == 0 || p.TagW > 32 || p.DataW == 0 || p.DataW > 64 {
		return nil, trogen.Configf(name, "tag width %d or data width %d out of range", p.TagW, p.DataW)
	}
	sh, err := NewShell(name, []string{"idle", "respond"}, "idle")
	if err != nil {
		return nil, err
	}

	idxW := uint(bits.Len(uint(p.Sets - 1)))
	if idxW == 0 {
		idxW = 1
	}
	rrW := uint(bits.Len(uint(p.Ways - 1)))
	if rrW == 0 {
		rrW = 1
	}

	tags := make([][]*trogen.Register, p.Sets)
	valids := make([][]*trogen.Register, p.Sets)
	datas := make([][]*trogen.Register, p.Sets)
	rrs := make([]*trogen.Register, p.Sets)
	for s := uint(0); s < p.Sets; s++ {
		tags[s] = make([]*trogen.Register, p.Ways)
		valids[s] = make([]*trogen.Register, p.Ways)
		datas[s] = make([]*trogen.Register, p.Ways)
		for w := uint(0); w < p.Ways; w++ {
			if tags[s][w], err = sh.Reg(fmt.Sprintf("tag%d_%d", s, w), p.TagW, 0); err != nil {
				return nil, err
			}
			if valids[s][w], err = sh.Reg(fmt.Sprintf("valid%d_%d", s, w), 1, 0); err != nil {
				return nil, err
			}
			if datas[s][w], err = sh.Reg(fmt.Sprintf("data%d_%d", s, w), p.DataW, 0); err != nil {
				return nil, err
			}
		}
		if rrs[s], err = sh.Reg(fmt.Sprintf("rr%d", s), rrW, 0); err != nil {
			return nil, err
		}
	}
	hit, err := sh.Output("hit", 1, 0)
	if err != nil {
		return nil, err
	}
	rdata, err := sh.Output("rdata", p.DataW, 0)
	if err != nil {
		return nil, err
	}

	ca := &Cache{Shell: sh, p: p}
	sh.OnSettle(func(sh *Shell) error {
		c := sh.Circuit()
		if !sh.InBit("req") {
			if err := c.Drive(hit, bitW(false)); err != nil {
				return err
			}
			return sh.SetState("idle")
		}

		addr := sh.In("addr")
		set := addr & uint64(p.Sets-1)
		tag := trogen.W(p.TagW, addr>>idxW)

		way := -1
		for w := uint(0); w < p.Ways; w++ {
			if !valids[set][w].Value().IsZero() && tags[set][w].Value().Eq(tag) {
				way = int(w)
				break
			}
		}

		switch {
		case way >= 0 && sh.InBit("we"):
			if err := c.Drive(datas[set][way], sh.InWord("wdata", p.DataW)); err != nil {
				return err
			}
			if err := c.Drive(hit, bitW(true)); err != nil {
				return err
			}
		case way >= 0:
			if err := c.Drive(rdata, datas[set][way].Value()); err != nil {
				return err
			}
			if err := sh.Feed("data", datas[set][way].Value()); err != nil {
				return err
			}
			if err := c.Drive(hit, bitW(true)); err != nil {
				return err
			}
		case sh.InBit("we"):
			// write miss: allocate the round-robin victim way
			victim := rrs[set].Value().Uint64() % uint64(p.Ways)
			if err := c.Drive(tags[set][victim], tag); err != nil {
				return err
			}
			if err := c.Drive(valids[set][victim], bitW(true)); err != nil {
				return err
			}
			if err := c.Drive(datas[set][victim], sh.InWord("wdata", p.DataW)); err != nil {
				return err
			}
			if err := c.Drive(rrs[set], rrs[set].Value().AddUint64(1)); err != nil {
				return err
			}
			if err := c.Drive(hit, bitW(false)); err != nil {
				return err
			}
		default:
			if err := c.Drive(hit, bitW(false)); err != nil {
				return err
			}
		}
		return sh.SetState("respond")
	})
	return ca, nil
}

// AttachVecMapper weaves the 2-bit-mode combinational mapper into the hit
// data path: its 16-bit output is XORed onto rdata on read hits. The five
// nibble inputs are keystream slices, so the corruption value varies with
// pseudo-random state while the trigger rarity comes from the mapper output
// masking to zero on most modes/rotations. Requires DataW == 16.
//
func (ca *Cache) AttachVecMapper(mode uint, seed uint64) error {
	if ca.p.DataW != 16 {
		return trogen.Configf(ca.Name(), "vec mapper payload is 16 bits, data width is %d", ca.p.DataW)
	}
	busy := func() bool { return ca.InBit("req") }
	if err := ca.UseKeystream(keystream.Config{Width: 24, Seed: seed}, "", busy); err != nil {
		return err
	}
	t, err := trojan.NewVecMapper(ca.Name()+".vecmap", mode)
	if err != nil {
		return err
	}
	hitNow := func() bool { return !ca.Circuit().Lookup("hit").Value().IsZero() }
	rare := func() bool { return ca.Keystream().Value().Slice(23, 18).IsZero() }
	return ca.Bind(t,
		[]EntropySpec{
			{Port: "in0", Source: "ks[3:0]", When: busy},
			{Port: "in1", Source: "ks[7:4]", When: busy},
			{Port: "in2", Source: "ks[11:8]", When: busy},
			{Port: "in3", Source: "ks[15:12]", When: busy},
			{Port: "in4", Source: "ks[19:16]", When: busy},
		},
		nil,
		[]InjectSpec{{
			Port:    "out",
			Target:  "rdata",
			Combine: trogen.CombineXor,
			When:    trogen.And(ca.InState("respond"), hitNow, rare),
		}},
	)
}

// AttachWideLeak weaves a continuous key-to-leak side channel observing one
// data way; the leak value is XORed onto rdata on every responding cycle.
// The class has no discrete trigger, so no pattern generator is attached.
//
func (ca *Cache) AttachWideLeak() error {
	t, err := trojan.NewWideLeak(ca.Name()+".wideleak", ca.p.DataW)
	if err != nil {
		return err
	}
	return ca.Bind(t,
		[]EntropySpec{{Port: "key", Source: "data0_0"}},
		nil,
		[]InjectSpec{{
			Port:    "leak",
			Target:  "rdata",
			Combine: trogen.CombineXor,
			When:    ca.InState("respond"),
		}},
	)
}
