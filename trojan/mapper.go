// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trojan

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// Five-input combinational mapper masks. The byte variant selects with a
// 3-bit mode, the vector variant with a 2-bit mode; both spread the five
// nibble inputs across a 16-bit output through fixed per-mode masks. The
// same contract is reused across many unrelated peripherals, which is why
// the inputs carry positional names rather than peripheral-specific ones.
var (
	byteMasks = [8]uint64{
		0xf0f0, 0x0f0f, 0x3c3c, 0xc3c3,
		0xaaaa, 0x5555, 0x9999, 0x6666,
	}
	vecMasks = [4]uint64{
		0xff00, 0x00ff, 0x0ff0, 0xf00f,
	}
)

// mapper is the shared structure of the two mapper cores.
type mapper struct {
	core
	mask trogen.Word
}

func newMapper(name string, mask uint64) mapper {
	return mapper{
		core: newCore(name,
			[]trogen.Port{
				{Name: "in0", Width: 4},
				{Name: "in1", Width: 4},
				{Name: "in2", Width: 4},
				{Name: "in3", Width: 4},
				{Name: "in4", Width: 4},
			},
			[]trogen.Port{{Name: "out", Width: 16}},
		),
		mask: trogen.W(16, mask),
	}
}

// Settle concatenates four inputs, rotates by the fifth, and applies the
// mode mask.
func (t *mapper) Settle(*trogen.Circuit) error {
	w := t.input("in3").
		Concat(t.input("in2")).
		Concat(t.input("in1")).
		Concat(t.input("in0"))
	w = w.RotL(uint(t.input("in4").Uint64()))
	t.setOutput("out", w.And(t.mask))
	return nil
}

// ByteMapper is the byte-corruption mapper: five nibble inputs and a 3-bit
// mode produce a 16-bit masked output. Reused for FIFO, I/O and DMA hosts.
//
//	Inputs:  in0..in4, each 4 bits
//	Outputs: out[16]
//
type ByteMapper struct {
	mapper
}

// NewByteMapper returns a byte mapper in the given mode (0..7).
//
func NewByteMapper(name string, mode uint) (*ByteMapper, error) {
	if name == "" {
		name = "bytemap"
	}
	if mode > 7 {
		return nil, trogen.Configf(name, "mode %d out of range [0,7]", mode)
	}
	return &ByteMapper{mapper: newMapper(name, byteMasks[mode])}, nil
}

// VecMapper is the arithmetic-pipeline variant of the mapper with a 2-bit
// mode encoding. Reused for CORDIC, FFT, vector, cache and crypto hosts.
//
//	Inputs:  in0..in4, each 4 bits
//	Outputs: out[16]
//
type VecMapper struct {
	mapper
}

// NewVecMapper returns a vector mapper in the given mode (0..3).
//
func NewVecMapper(name string, mode uint) (*VecMapper, error) {
	if name == "" {
		name = "vecmap"
	}
	if mode > 3 {
		return nil, trogen.Configf(name, "mode %d out of range [0,3]", mode)
	}
	return &VecMapper{mapper: newMapper(name, vecMasks[mode])}, nil
}
