package rangespec

import "testing"

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Spec
	}{
		{"rdata", Spec{Name: "rdata"}},
		{"key[63:32]", Spec{Name: "key", Hi: 63, Lo: 32, Sliced: true}},
		{"flags[2]", Spec{Name: "flags", Hi: 2, Lo: 2, Sliced: true}},
		{" ks[7:0] ", Spec{Name: "ks", Hi: 7, Lo: 0, Sliced: true}},
	} {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "[3:0]", "a[3:0", "a]3[", "a[0:3]", "a[x]", "a:b"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q) accepted", in)
		}
	}
}

func TestWidth(t *testing.T) {
	s, err := Parse("v[11:4]")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Width(16); got != 8 {
		t.Fatalf("sliced width = %d", got)
	}
	s, _ = Parse("v")
	if got := s.Width(16); got != 16 {
		t.Fatalf("full width = %d", got)
	}
}
