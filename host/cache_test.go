package host_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/swear01/ICCAD-Trojan-Generation-sub000/host"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trotest"
)

func newCache(t *testing.T) *host.Cache {
	t.Helper()
	ca, err := host.NewCache("cache", host.CacheParams{Sets: 4, Ways: 2, TagW: 8, DataW: 16})
	if err != nil {
		t.Fatal(err)
	}
	return ca
}

func TestCacheGolden(t *testing.T) {
	ca := newCache(t)
	// write miss allocates
	out := advance(t, ca.Shell, host.Inputs{"req": 1, "we": 1, "addr": 0x11, "wdata": 0x1234})
	if out["hit"].Uint64() != 0 {
		t.Fatal("write miss reported a hit")
	}
	out = advance(t, ca.Shell, host.Inputs{"req": 1, "addr": 0x11})
	if out["hit"].Uint64() != 1 || out["rdata"].Uint64() != 0x1234 {
		t.Fatalf("read after allocate: %v", out)
	}
	// write hit updates in place
	advance(t, ca.Shell, host.Inputs{"req": 1, "we": 1, "addr": 0x11, "wdata": 0x5678})
	out = advance(t, ca.Shell, host.Inputs{"req": 1, "addr": 0x11})
	if out["rdata"].Uint64() != 0x5678 {
		t.Fatalf("read after update: %v", out)
	}
	// read miss allocates nothing
	out = advance(t, ca.Shell, host.Inputs{"req": 1, "addr": 0x21})
	if out["hit"].Uint64() != 0 {
		t.Fatal("read miss reported a hit")
	}
	out = advance(t, ca.Shell, host.Inputs{"req": 1, "addr": 0x21})
	if out["hit"].Uint64() != 0 {
		t.Fatal("read miss allocated a line")
	}
}

func TestCacheEviction(t *testing.T) {
	ca := newCache(t)
	// three tags in the same two-way set: the first allocation is evicted
	for i, a := range []uint64{0x01, 0x05, 0x09} {
		advance(t, ca.Shell, host.Inputs{"req": 1, "we": 1, "addr": a, "wdata": uint64(i)})
	}
	out := advance(t, ca.Shell, host.Inputs{"req": 1, "addr": 0x01})
	if out["hit"].Uint64() != 0 {
		t.Fatal("evicted line still resident")
	}
	out = advance(t, ca.Shell, host.Inputs{"req": 1, "addr": 0x05})
	if out["hit"].Uint64() != 1 || out["rdata"].Uint64() != 1 {
		t.Fatalf("survivor line: %v", out)
	}
}

// TestCacheWideLeak checks the always-on leak: every responding cycle has
// the leak value XORed onto rdata, and the leak is exactly the core's
// declared output.
func TestCacheWideLeak(t *testing.T) {
	g := newCache(t)
	ca := newCache(t)
	if err := ca.AttachWideLeak(); err != nil {
		t.Fatal(err)
	}
	// always-on class: no pattern generator register in the instance
	if _, ok := ca.Snapshot()["ks"]; ok {
		t.Fatal("wide leak attached a keystream generator")
	}
	w := host.Inputs{"req": 1, "we": 1, "addr": 0x11, "wdata": 0x1234}
	advance(t, g.Shell, w)
	advance(t, ca.Shell, w)
	r := host.Inputs{"req": 1, "addr": 0x11}
	want := advance(t, g.Shell, r)
	got := advance(t, ca.Shell, r)
	if !ca.Injected() {
		t.Fatal("always-on leak did not inject on a responding cycle")
	}
	leak := ca.Trojan().Output("leak")
	if got["rdata"].Uint64() != want["rdata"].Xor(leak).Uint64() {
		t.Fatalf("rdata = %v, want %v xor %v", got["rdata"], want["rdata"], leak)
	}
	if got["hit"].Uint64() != want["hit"].Uint64() {
		t.Fatal("hit flag injected")
	}
}

func TestCacheVecMapperTransparency(t *testing.T) {
	g := newCache(t)
	ca := newCache(t)
	if err := ca.AttachVecMapper(1, 0xc0ffee); err != nil {
		t.Fatal(err)
	}
	stim := trotest.Random(rand.New(rand.NewSource(42)), map[string]uint64{
		"req":   2,
		"we":    2,
		"addr":  64,
		"wdata": 1 << 16,
	}, 20000)
	trotest.CompareHosts(t, g.Shell, ca.Shell, stim)
}

func TestCacheVecMapperDeterminism(t *testing.T) {
	build := func() *host.Cache {
		ca := newCache(t)
		if err := ca.AttachVecMapper(2, 0xf00d); err != nil {
			t.Fatal(err)
		}
		return ca
	}
	a, b := build(), build()
	stim := trotest.Random(rand.New(rand.NewSource(7)), map[string]uint64{
		"req":   2,
		"we":    2,
		"addr":  64,
		"wdata": 1 << 16,
	}, 20000)
	ta := trotest.Replay(t, a.Shell, stim)
	tb := trotest.Replay(t, b.Shell, stim)
	if diff := cmp.Diff(ta, tb); diff != "" {
		t.Fatalf("identically seeded runs diverged:\n%s", diff)
	}
	if diff := cmp.Diff(a.InjectionCycles(), b.InjectionCycles()); diff != "" {
		t.Fatalf("injection logs diverged:\n%s", diff)
	}
}

func TestCacheVecMapperNeedsMatchingWidth(t *testing.T) {
	ca, err := host.NewCache("cache", host.CacheParams{Sets: 4, Ways: 2, TagW: 8, DataW: 32})
	if err != nil {
		t.Fatal(err)
	}
	if err := ca.AttachVecMapper(0, 1); err == nil {
		t.Fatal("16-bit payload accepted onto 32-bit data path")
	}
}
