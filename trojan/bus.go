// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trojan

import (
	trogen "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

// BusSelect derives a narrow select corruption from an address, a data
// word and a third observation input. Hosts XOR the select output into
// address-decode or arbitration outputs to perturb which resource a bus
// transaction lands on.
//
//	Inputs:  addr[16], data[w], obs[8]
//	Outputs: sel[4]
//
type BusSelect struct {
	core
}

// NewBusSelect returns a bus-influence core observing w-bit data.
//
func NewBusSelect(name string, w uint) (*BusSelect, error) {
	if name == "" {
		name = "bussel"
	}
	if w == 0 || w > trogen.MaxWidth {
		return nil, trogen.Configf(name, "data width %d out of range", w)
	}
	t := &BusSelect{
		core: newCore(name,
			[]trogen.Port{
				{Name: "addr", Width: 16},
				{Name: "data", Width: w},
				{Name: "obs", Width: 8},
			},
			[]trogen.Port{{Name: "sel", Width: 4}},
		),
	}
	return t, nil
}

// Settle folds the three observations down to the 4-bit select.
func (t *BusSelect) Settle(*trogen.Circuit) error {
	a := fold4(t.input("addr"))
	d := fold4(t.input("data"))
	o := fold4(t.input("obs"))
	t.setOutput("sel", a.Xor(d).Xor(o))
	return nil
}

// fold4 XOR-folds a word down to 4 bits.
func fold4(w trogen.Word) trogen.Word {
	r := trogen.W(4, 0)
	for lo := uint(0); lo < w.Width(); lo += 4 {
		hi := lo + 3
		if hi >= w.Width() {
			hi = w.Width() - 1
		}
		r = r.Xor(w.Slice(hi, lo).Resize(4))
	}
	return r
}
