package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ana Clara", "ana-clara"},
		{"  João & Maria  ", "joao-and-maria"},
		{"Séssão Relaxante/Premium", "sessao-relaxante-premium"},
		{"---", ""},
		{"O'Brien", "obrien"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
