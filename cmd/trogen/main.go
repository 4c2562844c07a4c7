// Copyright 2024 swear01
// Licensed under the MIT license. See license text in the LICENSE file.

// Command trogen runs one trojaned benchmark circuit next to its golden
// twin and reports the cycles on which the trojan's payload reached the
// outputs.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/swear01/ICCAD-Trojan-Generation-sub000/host"
)

var (
	cycles  = flag.Int("cycles", 2000, "simulated clock cycles")
	seed    = flag.Int64("seed", 1, "stimulus and keystream seed")
	pattern = flag.Uint64("pattern", 0xab, "trigger byte the corruptor watches for")
	mask    = flag.Uint64("mask", 0xff, "XOR corruption constant")
	depth   = flag.Uint("depth", 16, "FIFO depth")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	p := host.FIFOParams{Depth: *depth, Width: 8}
	golden, err := host.NewFIFO("fifo", p)
	if err != nil {
		log.Fatal(err)
	}
	trojaned, err := host.NewFIFO("fifo", p)
	if err != nil {
		log.Fatal(err)
	}
	if err := trojaned.AttachReadCorruptor(*pattern, *mask, uint64(*seed)|1); err != nil {
		log.Fatal(err)
	}

	rng := rand.New(rand.NewSource(*seed))
	divergent := 0
	for i := 0; i < *cycles; i++ {
		in := host.Inputs{
			"wr_en": uint64(rng.Intn(2)),
			"rd_en": uint64(rng.Intn(2)),
			"wdata": uint64(rng.Intn(256)),
		}
		og, err := golden.Advance(in)
		if err != nil {
			log.Fatalf("cycle %d: golden: %v", i, err)
		}
		ot, err := trojaned.Advance(in)
		if err != nil {
			log.Fatalf("cycle %d: trojaned: %v", i, err)
		}
		if !og["rdata"].Eq(ot["rdata"]) {
			divergent++
			fmt.Printf("cycle %5d: rdata %s -> %s\n", i, og["rdata"], ot["rdata"])
		}
	}

	inj := trojaned.InjectionCycles()
	fmt.Printf("%d cycles, %d injections (%.4f%%), %d divergent reads\n",
		*cycles, len(inj), 100*float64(len(inj))/float64(*cycles), divergent)
}
