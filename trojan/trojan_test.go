package trojan_test

import (
	"errors"
	"fmt"
	"testing"

	tg "github.com/swear01/ICCAD-Trojan-Generation-sub000"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/keystream"
	"github.com/swear01/ICCAD-Trojan-Generation-sub000/trojan"
)

func TestRegistry(t *testing.T) {
	cases := []struct {
		a trojan.Archetype
		p trojan.Params
	}{
		{trojan.KeyLeakCore, trojan.Params{}},
		{trojan.SequenceTriggerCore, trojan.Params{Pattern: 0x5a, PatternLen: 8}},
		{trojan.ResetPulseCore, trojan.Params{Pattern: 0xab, PatternLen: 8, Count: 4}},
		{trojan.CorruptorCore, trojan.Params{Width: 8, Pattern: 0xab, Mask: 0xff}},
		{trojan.WideLeakCore, trojan.Params{KeyWidth: 32}},
		{trojan.PayloadMixerCore, trojan.Params{Width: 64}},
		{trojan.BusSelectCore, trojan.Params{Width: 32}},
		{trojan.ByteMapperCore, trojan.Params{Mode: 3}},
		{trojan.VecMapperCore, trojan.Params{Mode: 1}},
	}
	for _, tc := range cases {
		tr, err := trojan.New(tc.a, tc.p)
		if err != nil {
			t.Fatalf("%v: %v", tc.a, err)
		}
		if len(tr.Inputs()) == 0 || len(tr.Outputs()) == 0 {
			t.Fatalf("%v: empty port list", tc.a)
		}
	}
}

func TestUnsupportedArchetype(t *testing.T) {
	for _, a := range []trojan.Archetype{0, trojan.VecMapperCore + 1, 99} {
		_, err := trojan.New(a, trojan.Params{})
		if err == nil {
			t.Fatalf("archetype %d accepted", int(a))
		}
		if !errors.Is(err, tg.ErrUnsupportedArchetype) {
			t.Fatalf("archetype %d: got %v", int(a), err)
		}
	}
}

func TestInputContract(t *testing.T) {
	tr, err := trojan.NewCorruptor("", 8, 0xab, 0xff)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SetInput("nosuch", tg.W(8, 0)); err == nil {
		t.Fatal("unknown port accepted")
	}
	if err := tr.SetInput("data", tg.W(4, 0)); err == nil {
		t.Fatal("narrow input accepted")
	} else if !tg.IsConfig(err) {
		t.Fatalf("want config error, got %v", err)
	}
	if err := tr.SetInput("data", tg.W(8, 0x42)); err != nil {
		t.Fatal(err)
	}
}

func TestCorruptor(t *testing.T) {
	tr, err := trojan.NewCorruptor("", 8, 0xab, 0xff)
	if err != nil {
		t.Fatal(err)
	}
	set := func(data, trig uint64) {
		t.Helper()
		if err := tr.SetInput("data", tg.W(8, data)); err != nil {
			t.Fatal(err)
		}
		if err := tr.SetInput("trig", tg.W(8, trig)); err != nil {
			t.Fatal(err)
		}
		if err := tr.Settle(nil); err != nil {
			t.Fatal(err)
		}
	}
	set(0x42, 0x00)
	if tr.Triggered() || tr.Output("payload").Uint64() != 0x42 {
		t.Fatalf("dormant core altered data: %v", tr.Output("payload"))
	}
	set(0x42, 0xab)
	if !tr.Triggered() {
		t.Fatal("pattern match did not trigger")
	}
	if got := tr.Output("payload").Uint64(); got != 0x42^0xff {
		t.Fatalf("payload = %#x, want %#x", got, 0x42^0xff)
	}
	if _, err := trojan.NewCorruptor("", 8, 0xab, 0); err == nil {
		t.Fatal("zero mask accepted")
	}
}

func TestSequenceTrigger(t *testing.T) {
	tr, err := trojan.NewSequenceTrigger("", 0b1011, 4)
	if err != nil {
		t.Fatal(err)
	}
	c := tg.New("t")
	if err := tr.Attach(c); err != nil {
		t.Fatal(err)
	}
	bits := []uint64{0, 1, 0, 1, 1, 0, 1, 1, 1}
	//                        ^--------^ window 1011 completes at index 4 and 7
	var fired []int
	c.Mount(func(c *tg.Circuit) error { return tr.Settle(c) })
	for i, b := range bits {
		if err := tr.SetInput("bit", tg.W(1, b)); err != nil {
			t.Fatal(err)
		}
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
		if !tr.Output("trigger").IsZero() {
			fired = append(fired, i)
		}
	}
	if len(fired) != 2 || fired[0] != 4 || fired[1] != 7 {
		t.Fatalf("trigger fired at %v, want [4 7]", fired)
	}
}

func TestResetPulseThreshold(t *testing.T) {
	tr, err := trojan.NewResetPulse("", 0x3c, 8, 3)
	if err != nil {
		t.Fatal(err)
	}
	c := tg.New("t")
	if err := tr.Attach(c); err != nil {
		t.Fatal(err)
	}
	c.Mount(func(c *tg.Circuit) error { return tr.Settle(c) })
	step := func(obs uint64) bool {
		t.Helper()
		if err := tr.SetInput("obs", tg.W(8, obs)); err != nil {
			t.Fatal(err)
		}
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
		return !tr.Output("pulse").IsZero()
	}
	// two matches, a miss, then the third match fires for one cycle
	if step(0x3c) || step(0x3c) || step(0x00) {
		t.Fatal("pulse fired before threshold")
	}
	if !step(0x3c) {
		t.Fatal("pulse missing at threshold")
	}
	// counter wrapped, full threshold needed again
	if step(0x3c) || step(0x3c) {
		t.Fatal("pulse fired early after wrap")
	}
	if !step(0x3c) {
		t.Fatal("pulse missing after wrap")
	}
}

func TestKeyLeakDeterminism(t *testing.T) {
	run := func(key uint64) []uint64 {
		tr, err := trojan.NewKeyLeak("")
		if err != nil {
			t.Fatal(err)
		}
		c := tg.New("t")
		if err := tr.Attach(c); err != nil {
			t.Fatal(err)
		}
		c.Mount(func(c *tg.Circuit) error { return tr.Settle(c) })
		out := make([]uint64, 16)
		for i := range out {
			if err := tr.SetInput("key", tg.W(64, key)); err != nil {
				t.Fatal(err)
			}
			if err := c.Step(); err != nil {
				t.Fatal(err)
			}
			out[i] = tr.Output("load").Uint64()
		}
		return out
	}
	a, b := run(0xdead), run(0xdead)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cycle %d: %#x != %#x for identical keys", i, a[i], b[i])
		}
	}
	c := run(0xbeef)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("leak stream independent of key")
	}
}

func TestPayloadMixerValue(t *testing.T) {
	tr, err := trojan.NewPayloadMixer("", 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SetInput("monitor", tg.W(8, 0xa5)); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetInput("target", tg.W(8, 0x0f)); err != nil {
		t.Fatal(err)
	}
	if err := tr.Settle(nil); err != nil {
		t.Fatal(err)
	}
	// rotl(0xa5,4)=0x5a, ^0x0f=0x55, +0xa5=0xfa
	if got := tr.Output("payload").Uint64(); got != 0xfa {
		t.Fatalf("payload = %#x, want 0xfa", got)
	}
}

func TestBusSelectFold(t *testing.T) {
	tr, err := trojan.NewBusSelect("", 8)
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range map[string]tg.Word{
		"addr": tg.W(16, 0x1234),
		"data": tg.W(8, 0xff),
		"obs":  tg.W(8, 0x00),
	} {
		if err := tr.SetInput(name, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Settle(nil); err != nil {
		t.Fatal(err)
	}
	// 1^2^3^4 = 4, f^f = 0, 0^0 = 0
	if got := tr.Output("sel").Uint64(); got != 4 {
		t.Fatalf("sel = %#x, want 4", got)
	}
}

func settleMapper(t *testing.T, tr trojan.Trojan, in [5]uint64) uint64 {
	t.Helper()
	for i, v := range in {
		name := fmt.Sprintf("in%d", i)
		if err := tr.SetInput(name, tg.W(4, v)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Settle(nil); err != nil {
		t.Fatal(err)
	}
	return tr.Output("out").Uint64()
}

func TestMappers(t *testing.T) {
	// concat in3..in0 = 0xabcd, rotl 4 = 0xbcda
	in := [5]uint64{0xd, 0xc, 0xb, 0xa, 4}

	bm, err := trojan.NewByteMapper("", 4) // mask 0xaaaa
	if err != nil {
		t.Fatal(err)
	}
	if got := settleMapper(t, bm, in); got != 0xbcda&0xaaaa {
		t.Fatalf("byte mapper out = %#x, want %#x", got, 0xbcda&0xaaaa)
	}

	vm, err := trojan.NewVecMapper("", 0) // mask 0xff00
	if err != nil {
		t.Fatal(err)
	}
	if got := settleMapper(t, vm, in); got != 0xbc00 {
		t.Fatalf("vec mapper out = %#x, want 0xbc00", got)
	}

	if _, err := trojan.NewByteMapper("", 8); err == nil {
		t.Fatal("byte mapper mode 8 accepted")
	}
	if _, err := trojan.NewVecMapper("", 4); err == nil {
		t.Fatal("vec mapper mode 4 accepted")
	}
}

// TestSequenceTriggerRate drives the trigger from a maximal-length keystream
// and checks the long-run firing rate stays near 2^-k.
func TestSequenceTriggerRate(t *testing.T) {
	const cycles = 100000
	g, err := keystream.New(keystream.Config{Width: 16, Seed: 0xace1})
	if err != nil {
		t.Fatal(err)
	}
	tr, err := trojan.NewSequenceTrigger("", 0x5a, 8)
	if err != nil {
		t.Fatal(err)
	}
	c := tg.New("t")
	if err := g.Attach(c); err != nil {
		t.Fatal(err)
	}
	if err := tr.Attach(c); err != nil {
		t.Fatal(err)
	}
	c.Mount(
		g.Component(nil, nil),
		func(c *tg.Circuit) error {
			if err := tr.SetInput("bit", tg.W(1, g.Value().Uint64()&1)); err != nil {
				return err
			}
			return tr.Settle(c)
		},
	)
	fired := 0
	for i := 0; i < cycles; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
		if !tr.Output("trigger").IsZero() {
			fired++
		}
	}
	// expected cycles/256 ~ 390; bounds are deliberately loose
	if fired < 150 || fired > 800 {
		t.Fatalf("trigger fired %d times in %d cycles, want ~%d", fired, cycles, cycles/256)
	}
}
