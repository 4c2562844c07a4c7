// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

// Package rangespec parses the compact register/bit-range descriptors used
// by tap declarations: "name" for a whole register, "name[hi:lo]" for an
// inclusive bit slice, "name[i]" for a single bit.
//
package rangespec

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Spec is a parsed descriptor.
type Spec struct {
	Name   string
	Hi, Lo uint
	Sliced bool // false: whole register, Hi/Lo unset
}

// Parse parses a descriptor string.
//
//	Parse("rdata")       -> {Name: "rdata"}
//	Parse("key[63:32]")  -> {Name: "key", Hi: 63, Lo: 32, Sliced: true}
//	Parse("flags[2]")    -> {Name: "flags", Hi: 2, Lo: 2, Sliced: true}
//
func Parse(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Spec{}, errors.New("empty range descriptor")
	}
	b := strings.IndexByte(s, '[')
	if b < 0 {
		if strings.ContainsAny(s, "]:") {
			return Spec{}, errors.Errorf("malformed descriptor %q", s)
		}
		return Spec{Name: s}, nil
	}
	if b == 0 || !strings.HasSuffix(s, "]") {
		return Spec{}, errors.Errorf("malformed descriptor %q", s)
	}
	name, rng := s[:b], s[b+1:len(s)-1]
	var hi, lo uint64
	var err error
	if c := strings.IndexByte(rng, ':'); c >= 0 {
		hi, err = strconv.ParseUint(rng[:c], 10, 16)
		if err != nil {
			return Spec{}, errors.Wrapf(err, "bad high index in %q", s)
		}
		lo, err = strconv.ParseUint(rng[c+1:], 10, 16)
		if err != nil {
			return Spec{}, errors.Wrapf(err, "bad low index in %q", s)
		}
	} else {
		hi, err = strconv.ParseUint(rng, 10, 16)
		if err != nil {
			return Spec{}, errors.Wrapf(err, "bad bit index in %q", s)
		}
		lo = hi
	}
	if hi < lo {
		return Spec{}, errors.Errorf("descending range in %q", s)
	}
	return Spec{Name: name, Hi: uint(hi), Lo: uint(lo), Sliced: true}, nil
}

// Width returns the bit count selected by the spec, given the full width of
// the underlying register for unsliced specs.
func (s Spec) Width(regWidth uint) uint {
	if !s.Sliced {
		return regWidth
	}
	return s.Hi - s.Lo + 1
}
