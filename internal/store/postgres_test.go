package store

import (
	"testing"
	"time"
)

func TestSafeInt(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"120000", 0, 120000},
		{" 120000 ", 0, 120000},
		{"120000.0", 0, 120000},
		{"120000,5", 0, 120000},
		{"", 7, 7},
		{"N/A", 7, 7},
		{"n/a", 7, 7},
		{"brak danych", 7, 7},
	}
	for _, c := range cases {
		if got := safeInt(c.in, c.def); got != c.want {
			t.Fatalf("safeInt(%q, %d) = %d, want %d", c.in, c.def, got, c.want)
		}
	}
}

func TestSafeFloat(t *testing.T) {
	cases := []struct {
		in   string
		def  float64
		want float64
	}{
		{"420.5", 0, 420.5},
		{"420,5", 0, 420.5},
		{"", 300, 300},
		{"N/A", 300, 300},
		{"unknown", 300, 300},
	}
	for _, c := range cases {
		if got := safeFloat(c.in, c.def); got != c.want {
			t.Fatalf("safeFloat(%q, %g) = %g, want %g", c.in, c.def, got, c.want)
		}
	}
}

func TestMonthKey(t *testing.T) {
	ts := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	if got := MonthKey(ts); got != "2026-03" {
		t.Fatalf("MonthKey = %s, want 2026-03", got)
	}
}
