package host_test

import (
	"testing"

	"github.com/swear01/ICCAD-Trojan-Generation-sub000/host"
)

func newCipher(t *testing.T, rounds uint) *host.Cipher {
	t.Helper()
	ci, err := host.NewCipher("cipher", host.CipherParams{Rounds: rounds})
	if err != nil {
		t.Fatal(err)
	}
	return ci
}

// encrypt runs one block through the datapath and returns the ciphertext
// from the result cycle.
func encrypt(t *testing.T, ci *host.Cipher, rounds uint, block, key uint64) uint64 {
	t.Helper()
	advance(t, ci.Shell, host.Inputs{"load": 1, "block": block, "key": key})
	var out host.Outputs
	for i := uint(0); i < rounds; i++ {
		out = advance(t, ci.Shell, nil)
	}
	ct := out["ct"].Uint64()
	out = advance(t, ci.Shell, nil)
	if out["valid"].Uint64() != 1 {
		t.Fatal("valid pulse missing after final round")
	}
	return ct
}

func TestCipherGolden(t *testing.T) {
	a := newCipher(t, 8)
	b := newCipher(t, 8)
	const blk, key = 0x0123456789abcdef, 0xfedcba9876543210
	c1 := encrypt(t, a, 8, blk, key)
	c2 := encrypt(t, b, 8, blk, key)
	if c1 != c2 {
		t.Fatalf("identical encryptions diverged: %#x vs %#x", c1, c2)
	}
	if c1 == blk {
		t.Fatal("datapath left the block unchanged")
	}
	// back-to-back blocks through one instance stay independent
	c3 := encrypt(t, a, 8, blk, key)
	if c3 != c1 {
		t.Fatalf("second encryption of the same block = %#x, want %#x", c3, c1)
	}
	if encrypt(t, a, 8, blk, key^1) == c1 {
		t.Fatal("ciphertext independent of key")
	}
}

// TestCipherKeyLeak checks the always-on leak class: on the result cycle the
// observed ciphertext is the legitimate one XOR the core's leak value, and
// the ct presented alongside the valid pulse is untouched.
func TestCipherKeyLeak(t *testing.T) {
	g := newCipher(t, 8)
	ci := newCipher(t, 8)
	if err := ci.AttachKeyLeak(); err != nil {
		t.Fatal(err)
	}
	const blk, key = 0x1122334455667788, 0x99aabbccddeeff00
	in := host.Inputs{"load": 1, "block": blk, "key": key}
	advance(t, g.Shell, in)
	advance(t, ci.Shell, in)
	var want, got host.Outputs
	for i := 0; i < 8; i++ {
		want = advance(t, g.Shell, nil)
		got = advance(t, ci.Shell, nil)
	}
	if !ci.Injected() {
		t.Fatal("always-on leak did not inject on the result cycle")
	}
	load := ci.Trojan().Output("load")
	if got["ct"].Uint64() != want["ct"].Xor(load).Uint64() {
		t.Fatalf("ct = %v, want %v xor %v", got["ct"], want["ct"], load)
	}
	// one cycle later the registers still hold the legitimate ciphertext
	want = advance(t, g.Shell, nil)
	got = advance(t, ci.Shell, nil)
	if ci.Injected() {
		t.Fatal("injection persisted past the result cycle")
	}
	if got["ct"].Uint64() != want["ct"].Uint64() || got["valid"].Uint64() != 1 {
		t.Fatalf("valid cycle: got %v, want %v", got, want)
	}
}

// TestCipherPayloadMixer checks the key-gated substitution: with eight
// rounds the round key ends rotated left by eight, so a key whose top byte
// is zero arms the trigger and the mixed payload replaces the ciphertext.
func TestCipherPayloadMixer(t *testing.T) {
	g := newCipher(t, 8)
	ci := newCipher(t, 8)
	if err := ci.AttachPayloadMixer(); err != nil {
		t.Fatal(err)
	}
	run := func(key uint64) (uint64, uint64, uint64, bool) {
		t.Helper()
		in := host.Inputs{"load": 1, "block": 0xdeadbeef12345678, "key": key}
		advance(t, g.Shell, in)
		advance(t, ci.Shell, in)
		var want, got host.Outputs
		for i := 0; i < 8; i++ {
			want = advance(t, g.Shell, nil)
			got = advance(t, ci.Shell, nil)
		}
		inj := ci.Injected()
		// the core settles again on the drain cycle below, so the payload
		// substituted on the result cycle must be read before it
		payload := ci.Trojan().Output("payload").Uint64()
		// drain the valid cycle so the next run starts from idle
		advance(t, g.Shell, nil)
		advance(t, ci.Shell, nil)
		return want["ct"].Uint64(), got["ct"].Uint64(), payload, inj
	}

	want, got, payload, inj := run(0x00deadbeef112233)
	if !inj {
		t.Fatal("armed key did not trigger the substitution")
	}
	if got != payload {
		t.Fatalf("ct = %#x, want mixed payload %#x", got, payload)
	}
	if got == want {
		t.Fatal("substituted ciphertext equals the legitimate one")
	}

	want, got, _, inj = run(0xffdeadbeef112233)
	if inj {
		t.Fatal("disarmed key triggered the substitution")
	}
	if got != want {
		t.Fatalf("clean ct = %#x, want %#x", got, want)
	}
}
