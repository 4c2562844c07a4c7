// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trotest provides utility functions for testing trojaned hosts
// against golden references.
//
package trotest

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/swear01/ICCAD-Trojan-Generation-sub000/host"
)

// A Stimulus is a per-cycle sequence of primary input vectors.
type Stimulus []host.Inputs

// Random builds n cycles of random stimulus. Each entry of ranges maps an
// input name to one past its maximum value; a range of 2 yields a random
// enable bit. Inputs draw in sorted name order, so an identically seeded
// source reproduces the stimulus exactly.
//
func Random(r *rand.Rand, ranges map[string]uint64, n int) Stimulus {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	s := make(Stimulus, n)
	for i := range s {
		in := make(host.Inputs, len(names))
		for _, name := range names {
			in[name] = uint64(r.Int63()) % ranges[name]
		}
		s[i] = in
	}
	return s
}

// CompareHosts drives a golden and a trojaned host with identical stimulus
// and checks functional transparency: on every cycle the trojaned host
// reports no injection, its outputs must be bit-identical to the golden
// host's. Divergence on injecting cycles is recorded, not failed. Returns
// the injection cycle indices.
//
func CompareHosts(t *testing.T, golden, trojaned *host.Shell, stim Stimulus) []uint64 {
	t.Helper()

	start := time.Now()
	for i, in := range stim {
		og, err := golden.Advance(in)
		if err != nil {
			t.Fatalf("cycle %d: golden: %v", i, err)
		}
		ot, err := trojaned.Advance(in)
		if err != nil {
			t.Fatalf("cycle %d: trojaned: %v", i, err)
		}
		if trojaned.Injected() {
			continue
		}
		if diff := cmp.Diff(og, ot); diff != "" {
			t.Fatalf("cycle %d: outputs diverged without injection (-golden +trojaned):\n%s", i, diff)
		}
	}
	inj := trojaned.InjectionCycles()
	elapsed := time.Since(start)
	t.Logf("%d cycles in %v, %d injections", len(stim), elapsed, len(inj))
	return inj
}

// Replay runs a host over the stimulus and returns every cycle's outputs.
// Used to assert determinism by comparing two runs of identically
// constructed hosts.
//
func Replay(t *testing.T, sh *host.Shell, stim Stimulus) []host.Outputs {
	t.Helper()
	trace := make([]host.Outputs, 0, len(stim))
	for i, in := range stim {
		out, err := sh.Advance(in)
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		trace = append(trace, out)
	}
	return trace
}
