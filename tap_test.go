package trogen_test

import (
	"testing"

	tg "github.com/swear01/ICCAD-Trojan-Generation-sub000"
)

func TestEntropyTapReadsCommittedState(t *testing.T) {
	c := tg.New("c")
	r := c.MustRegister("r", 8, 0x0f)
	tap, err := tg.NewEntropyTap(r, 3, 0, tg.Always)
	if err != nil {
		t.Fatal(err)
	}
	var sampled tg.Word
	c.Mount(
		func(c *tg.Circuit) error { return c.Drive(r, tg.W(8, 0xf0)) },
		func(c *tg.Circuit) error { sampled = tap.Sample(); return nil },
	)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	// the tap saw the pre-cycle value, not the in-flight write
	if sampled.Uint64() != 0xf {
		t.Fatalf("sampled %v, want low nibble of 0x0f", sampled)
	}
}

func TestEntropyTapFreezesWhenIdle(t *testing.T) {
	c := tg.New("c")
	r := c.MustRegister("r", 8, 1)
	active := false
	tap, err := tg.NewEntropyTap(r, 7, 0, func() bool { return active })
	if err != nil {
		t.Fatal(err)
	}
	active = true
	if got := tap.Sample().Uint64(); got != 1 {
		t.Fatalf("active sample = %#x", got)
	}
	r.SetPending(tg.W(8, 0x42))
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	active = false
	if got := tap.Sample().Uint64(); got != 1 {
		t.Fatalf("idle tap advanced: %#x", got)
	}
	active = true
	if got := tap.Sample().Uint64(); got != 0x42 {
		t.Fatalf("reactivated sample = %#x", got)
	}
}

func TestEntropyTapRangeChecked(t *testing.T) {
	c := tg.New("c")
	r := c.MustRegister("r", 8, 0)
	if _, err := tg.NewEntropyTap(r, 8, 0, tg.Always); err == nil {
		t.Fatal("out-of-range tap accepted")
	} else if !tg.IsConfig(err) {
		t.Fatalf("want config error, got %v", err)
	}
	if _, err := tg.NewEntropyTap(r, 0, 3, tg.Always); err == nil {
		t.Fatal("descending range accepted")
	}
}

func TestInjectionTapWidthSafety(t *testing.T) {
	c := tg.New("c")
	out := c.MustRegister("out", 8, 0)
	tap, err := tg.NewInjectionTap(out, tg.CombineXor, tg.Always)
	if err != nil {
		t.Fatal(err)
	}
	if err := tap.CheckPayload(8); err != nil {
		t.Fatal(err)
	}
	// a mismatched payload must fail the bind, never be padded
	if err := tap.CheckPayload(4); err == nil {
		t.Fatal("narrow payload accepted")
	} else if !tg.IsConfig(err) {
		t.Fatalf("want config error, got %v", err)
	}
	// rotation consumes the payload as a count, any width is fine
	rot, err := tg.NewInjectionTap(out, tg.CombineRotate, tg.Always)
	if err != nil {
		t.Fatal(err)
	}
	if err := rot.CheckPayload(3); err != nil {
		t.Fatal(err)
	}
}

func TestInjectionCombineOps(t *testing.T) {
	c := tg.New("c")
	out := c.MustRegister("out", 8, 0)
	legit := tg.W(8, 0b0011_0000)
	payload := tg.W(8, 0b0000_1111)

	xor, _ := tg.NewInjectionTap(out, tg.CombineXor, tg.Always)
	if got := xor.Apply(legit, payload).Uint64(); got != 0b0011_1111 {
		t.Fatalf("xor = %#b", got)
	}
	rep, _ := tg.NewInjectionTap(out, tg.CombineReplace, tg.Always)
	if got := rep.Apply(legit, payload).Uint64(); got != 0b0000_1111 {
		t.Fatalf("replace = %#b", got)
	}
	rot, _ := tg.NewInjectionTap(out, tg.CombineRotate, tg.Always)
	if got := rot.Apply(legit, tg.W(4, 4)).Uint64(); got != 0b0000_0011 {
		t.Fatalf("rotate = %#b", got)
	}
}

func TestResetTapPayloadWidth(t *testing.T) {
	tap, err := tg.NewResetTap(tg.Always)
	if err != nil {
		t.Fatal(err)
	}
	if err := tap.CheckPayload(1); err != nil {
		t.Fatal(err)
	}
	if err := tap.CheckPayload(8); err == nil {
		t.Fatal("wide payload accepted on reset line")
	}
}

func TestPredicateCombinators(t *testing.T) {
	on := tg.Always
	off := tg.Never
	if !tg.And(on, on)() || tg.And(on, off)() {
		t.Fatal("And misbehaves")
	}
	if !tg.Or(off, on)() || tg.Or(off, off)() {
		t.Fatal("Or misbehaves")
	}
}
