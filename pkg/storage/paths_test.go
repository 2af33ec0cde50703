package storage

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Đà Nẵng Street Food Tour", "da-nang-street-food-tour"},
		{"Sài Gòn: Bún Bò & Phở!!", "sai-gon-bun-bo-pho"},
		{"  already-clean  ", "already-clean"},
		{"!!!", "collection"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestSlugify_TruncatesTo50(t *testing.T) {
	long := strings.Repeat("hanoi food ", 20)
	got := Slugify(long)
	if len(got) > 50 {
		t.Fatalf("slug too long: %d chars", len(got))
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Fatalf("slug has dangling hyphen: %q", got)
	}
}

func TestShortPlaceID_StableAndShort(t *testing.T) {
	a := ShortPlaceID("ChIJN1t_tDeuEmsRUsoyG83frY4")
	b := ShortPlaceID("ChIJN1t_tDeuEmsRUsoyG83frY4")
	if a != b {
		t.Fatal("short id must be deterministic")
	}
	if len(a) != 8 {
		t.Fatalf("expected 8 chars, got %d", len(a))
	}
	if a == ShortPlaceID("ChIJdifferent") {
		t.Fatal("distinct place ids must not collide")
	}
}

func TestPhotoPathConvention(t *testing.T) {
	p := PhotoPath("da-nang-eats", "ab12cd34", 1)
	if p != "da-nang-eats/ab12cd34-1.jpg" {
		t.Fatalf("unexpected path: %q", p)
	}
	if !strings.HasPrefix(p, PhotoPrefix("da-nang-eats", "ab12cd34")) {
		t.Fatal("photo path must share the cleanup prefix")
	}
}
