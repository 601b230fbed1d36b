package media

import "testing"

func TestAllowedExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     bool
	}{
		{"avatar.png", true},
		{"photo.JPG", true},
		{"photo.jpeg", true},
		{"anim.gif", true},
		{"modern.webp", true},
		{"doc.pdf", false},
		{"script.png.exe", false},
		{"noextension", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := AllowedExtension(tc.filename); got != tc.want {
			t.Fatalf("AllowedExtension(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}
