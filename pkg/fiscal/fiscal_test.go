package fiscal

import (
	"testing"
	"time"
)

func TestStartYear(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2025-04-01", 2025},
		{"2025-12-31", 2025},
		{"2026-01-15", 2025},
		{"2026-03-31", 2025},
		{"2026-04-01", 2026},
	}
	for _, c := range cases {
		d, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			t.Fatalf("parse %s: %v", c.date, err)
		}
		if got := StartYear(d); got != c.want {
			t.Errorf("StartYear(%s) = %d, want %d", c.date, got, c.want)
		}
	}
}

func TestBucket(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2025-06-10", "2526"},
		{"2026-02-01", "2526"},
		{"2026-04-01", "2627"},
		{"1999-05-01", "9900"},
	}
	for _, c := range cases {
		d, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			t.Fatalf("parse %s: %v", c.date, err)
		}
		if got := Bucket(d); got != c.want {
			t.Errorf("Bucket(%s) = %q, want %q", c.date, got, c.want)
		}
	}
}
