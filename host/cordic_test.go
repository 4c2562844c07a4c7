package host_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/swear01/ICCAD-Trojan-Generation-sub000/host"
)

func newCORDIC(t *testing.T, iters uint) *host.CORDIC {
	t.Helper()
	co, err := host.NewCORDIC("cordic", host.CORDICParams{Iterations: iters})
	if err != nil {
		t.Fatal(err)
	}
	return co
}

// rotate runs one full rotation and returns (x_out, y_out) from the result
// cycle, checking the valid pulse on the following one.
func rotate(t *testing.T, co *host.CORDIC, iters uint, x, y, z uint64) (uint64, uint64) {
	t.Helper()
	advance(t, co.Shell, host.Inputs{"start": 1, "x_in": x, "y_in": y, "z_in": z})
	var out host.Outputs
	for i := uint(0); i < iters; i++ {
		out = advance(t, co.Shell, nil)
	}
	xo, yo := out["x_out"].Uint64(), out["y_out"].Uint64()
	out = advance(t, co.Shell, nil)
	if out["valid"].Uint64() != 1 {
		t.Fatal("valid pulse missing after final iteration")
	}
	out = advance(t, co.Shell, nil)
	if out["valid"].Uint64() != 0 {
		t.Fatal("valid held past the result cycle")
	}
	return xo, yo
}

// TestCORDICRotate45 rotates the gain-compensated unit vector by 45
// degrees (0x2000 in the 0x4000 = 90 degree scale); x and y must converge
// near 0x4000/sqrt(2) = 11585 each.
func TestCORDICRotate45(t *testing.T) {
	co := newCORDIC(t, 14)
	// 0x26dd ~ 1/1.6468, the inverse CORDIC gain
	x, y := rotate(t, co, 14, 0x26dd, 0, 0x2000)
	if x < 11450 || x > 11750 {
		t.Fatalf("x_out = %d, want ~11585", x)
	}
	if y < 11450 || y > 11750 {
		t.Fatalf("y_out = %d, want ~11585", y)
	}
	d := int64(x) - int64(y)
	if d < -96 || d > 96 {
		t.Fatalf("45 degree rotation not symmetric: x=%d y=%d", x, y)
	}
}

// TestCORDICRotateNegative rotates clockwise by 45 degrees; y lands near
// -11585 in two's complement.
func TestCORDICRotateNegative(t *testing.T) {
	co := newCORDIC(t, 14)
	x, y := rotate(t, co, 14, 0x26dd, 0, 0xe000) // -0x2000
	if x < 11450 || x > 11750 {
		t.Fatalf("x_out = %d, want ~11585", x)
	}
	ny := int64(y) - (1 << 16) // sign-extend
	if ny < -11750 || ny > -11450 {
		t.Fatalf("y_out = %d, want ~-11585", ny)
	}
}

func TestCORDICDeterminism(t *testing.T) {
	a := newCORDIC(t, 12)
	b := newCORDIC(t, 12)
	xa, ya := rotate(t, a, 12, 0x26dd, 0, 0x1234)
	xb, yb := rotate(t, b, 12, 0x26dd, 0, 0x1234)
	if xa != xb || ya != yb {
		t.Fatalf("identical rotations diverged: (%d,%d) vs (%d,%d)", xa, ya, xb, yb)
	}
}

// TestCORDICVecMapper runs many rotations through a golden and a trojaned
// rotator; divergence is allowed only on x_out and only while injecting.
func TestCORDICVecMapper(t *testing.T) {
	g := newCORDIC(t, 14)
	co := newCORDIC(t, 14)
	if err := co.AttachVecMapper(3, 0xdada); err != nil {
		t.Fatal(err)
	}
	injected := 0
	for n := uint64(0); n < 3000; n++ {
		in := host.Inputs{"start": 1, "x_in": 0x26dd, "y_in": 0, "z_in": (n * 0x111) & 0x7fff}
		for i := 0; i < 16; i++ {
			var step host.Inputs
			if i == 0 {
				step = in
			}
			want := advance(t, g.Shell, step)
			got := advance(t, co.Shell, step)
			if co.Injected() {
				injected++
				m := co.Trojan().Output("out")
				if got["x_out"].Uint64() != want["x_out"].Xor(m).Uint64() {
					t.Fatalf("injected x_out = %v, golden %v, mapper %v", got["x_out"], want["x_out"], m)
				}
				got["x_out"] = want["x_out"]
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("rotation %d diverged beyond x_out (-golden +trojaned):\n%s", n, diff)
			}
		}
	}
	if injected > 3000/8 {
		t.Fatalf("mapper injected %d times in 3000 rotations, trigger not rare", injected)
	}
}
