// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

package trogen

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// MaxWidth is the widest Word supported by the kernel. Wide key and leak
// vectors in the trojan archetypes top out at 128 bits, well within range.
const MaxWidth = 256

// A Word is a fixed-width bit vector. The width is set at creation and never
// changes; every operation masks its result to the destination width, the
// same way fixed-width hardware arithmetic wraps instead of growing.
//
// Words are values. Copying one is cheap and never aliases internal state.
//
type Word struct {
	width uint
	v     uint256.Int
}

// mask returns the all-ones mask for the given width.
func mask(width uint) *uint256.Int {
	m := new(uint256.Int)
	if width >= MaxWidth {
		return m.Not(m)
	}
	m.Lsh(uint256.NewInt(1), width)
	return m.SubUint64(m, 1)
}

func checkWidth(width uint) {
	if width == 0 || width > MaxWidth {
		panic(fmt.Sprintf("invalid word width %d", width))
	}
}

// W returns a Word of the given width holding v truncated to that width.
//
func W(width uint, v uint64) Word {
	checkWidth(width)
	w := Word{width: width}
	w.v.SetUint64(v)
	w.v.And(&w.v, mask(width))
	return w
}

// WordFromBytes returns a Word of the given width built from big-endian
// bytes, truncated to the width.
//
func WordFromBytes(width uint, b []byte) Word {
	checkWidth(width)
	w := Word{width: width}
	w.v.SetBytes(b)
	w.v.And(&w.v, mask(width))
	return w
}

// Width returns the declared bit width.
func (w Word) Width() uint { return w.width }

// Uint64 returns the low 64 bits of the word.
func (w Word) Uint64() uint64 { return w.v.Uint64() }

// IsZero reports whether every bit is clear.
func (w Word) IsZero() bool { return w.v.IsZero() }

// Bit returns bit i (0 = least significant). Out-of-range bits read as zero.
func (w Word) Bit(i uint) bool {
	if i >= w.width {
		return false
	}
	t := new(uint256.Int).Rsh(&w.v, i)
	return t.Uint64()&1 == 1
}

// Eq reports whether x holds the same value and width as w.
func (w Word) Eq(x Word) bool {
	return w.width == x.width && w.v.Eq(&x.v)
}

// Equal reports whether x holds the same value and width as w. Defined so
// cmp.Diff compares Words by value.
func (w Word) Equal(x Word) bool { return w.Eq(x) }

// EqUint64 reports whether the word's value equals v.
func (w Word) EqUint64(v uint64) bool {
	x := new(uint256.Int).SetUint64(v)
	return w.v.Eq(x)
}

func (w Word) binCheck(x Word, op string) {
	if w.width != x.width {
		panic(fmt.Sprintf("%s: width mismatch %d != %d", op, w.width, x.width))
	}
}

// And returns w & x. Panics if widths differ.
func (w Word) And(x Word) Word {
	w.binCheck(x, "and")
	r := Word{width: w.width}
	r.v.And(&w.v, &x.v)
	return r
}

// Or returns w | x. Panics if widths differ.
func (w Word) Or(x Word) Word {
	w.binCheck(x, "or")
	r := Word{width: w.width}
	r.v.Or(&w.v, &x.v)
	return r
}

// Xor returns w ^ x. Panics if widths differ.
func (w Word) Xor(x Word) Word {
	w.binCheck(x, "xor")
	r := Word{width: w.width}
	r.v.Xor(&w.v, &x.v)
	return r
}

// Not returns ^w masked to the word width.
func (w Word) Not() Word {
	r := Word{width: w.width}
	r.v.Not(&w.v)
	r.v.And(&r.v, mask(w.width))
	return r
}

// Add returns w + x modulo 2^width. Panics if widths differ.
func (w Word) Add(x Word) Word {
	w.binCheck(x, "add")
	r := Word{width: w.width}
	r.v.Add(&w.v, &x.v)
	r.v.And(&r.v, mask(w.width))
	return r
}

// AddUint64 returns w + v modulo 2^width.
func (w Word) AddUint64(v uint64) Word {
	r := Word{width: w.width}
	r.v.AddUint64(&w.v, v)
	r.v.And(&r.v, mask(w.width))
	return r
}

// Sub returns w - x modulo 2^width. Panics if widths differ.
func (w Word) Sub(x Word) Word {
	w.binCheck(x, "sub")
	r := Word{width: w.width}
	r.v.Sub(&w.v, &x.v)
	r.v.And(&r.v, mask(w.width))
	return r
}

// Lsh returns w << n with bits shifted past the width discarded.
func (w Word) Lsh(n uint) Word {
	r := Word{width: w.width}
	if n < MaxWidth {
		r.v.Lsh(&w.v, n)
		r.v.And(&r.v, mask(w.width))
	}
	return r
}

// Rsh returns w >> n (logical shift).
func (w Word) Rsh(n uint) Word {
	r := Word{width: w.width}
	if n < MaxWidth {
		r.v.Rsh(&w.v, n)
	}
	return r
}

// Sar returns w >> n with the sign bit (the declared msb) replicated,
// the arithmetic shift of a two's-complement value of this width.
func (w Word) Sar(n uint) Word {
	r := w.Rsh(n)
	if !w.Bit(w.width - 1) {
		return r
	}
	if n >= w.width {
		return w.Not().Xor(w) // all ones
	}
	ext := mask(w.width)
	t := new(uint256.Int).Lsh(ext, w.width-n)
	r.v.Or(&r.v, t)
	r.v.And(&r.v, mask(w.width))
	return r
}

// RotL returns w rotated left by n bits within its width.
func (w Word) RotL(n uint) Word {
	n %= w.width
	if n == 0 {
		return w
	}
	return w.Lsh(n).Or(w.Rsh(w.width - n))
}

// RotR returns w rotated right by n bits within its width.
func (w Word) RotR(n uint) Word {
	n %= w.width
	if n == 0 {
		return w
	}
	return w.Rsh(n).Or(w.Lsh(w.width - n))
}

// Slice returns bits hi..lo (inclusive) as a Word of width hi-lo+1.
// Panics if the range does not fit the word.
func (w Word) Slice(hi, lo uint) Word {
	if hi < lo || hi >= w.width {
		panic(fmt.Sprintf("slice [%d:%d] out of range for width %d", hi, lo, w.width))
	}
	r := Word{width: hi - lo + 1}
	r.v.Rsh(&w.v, lo)
	r.v.And(&r.v, mask(r.width))
	return r
}

// Concat returns the word formed by w in the high bits and x in the low
// bits, of width w.Width()+x.Width(). Panics if the result exceeds MaxWidth.
func (w Word) Concat(x Word) Word {
	nw := w.width + x.width
	checkWidth(nw)
	r := Word{width: nw}
	r.v.Lsh(&w.v, x.width)
	r.v.Or(&r.v, &x.v)
	return r
}

// SetSlice returns a copy of w with bits hi..lo replaced by x.
// x must be exactly hi-lo+1 bits wide.
func (w Word) SetSlice(hi, lo uint, x Word) Word {
	if hi < lo || hi >= w.width {
		panic(fmt.Sprintf("slice [%d:%d] out of range for width %d", hi, lo, w.width))
	}
	if x.width != hi-lo+1 {
		panic(fmt.Sprintf("set slice [%d:%d]: value width %d != %d", hi, lo, x.width, hi-lo+1))
	}
	m := new(uint256.Int).Lsh(mask(x.width), lo)
	r := Word{width: w.width}
	r.v.Not(m)
	r.v.And(&w.v, &r.v)
	t := new(uint256.Int).Lsh(&x.v, lo)
	r.v.Or(&r.v, t)
	return r
}

// Resize returns w zero-extended or truncated to the given width. This is
// the host shell's explicit width-adaptation step; the scheduler and taps
// never resize implicitly.
func (w Word) Resize(width uint) Word {
	checkWidth(width)
	r := Word{width: width}
	r.v.And(&w.v, mask(width))
	return r
}

// String formats the word as width'hHEX, the way hardware dumps read.
func (w Word) String() string {
	return fmt.Sprintf("%d'h%s", w.width, strings.TrimPrefix(w.v.Hex(), "0x"))
}
