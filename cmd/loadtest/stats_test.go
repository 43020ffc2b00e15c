package main

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	samples := make([]time.Duration, 0, 100)
	for i := 100; i >= 1; i-- {
		samples = append(samples, time.Duration(i)*time.Millisecond)
	}

	s := summarize(samples)

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"p50", s.P50, 50 * time.Millisecond},
		{"p90", s.P90, 90 * time.Millisecond},
		{"p99", s.P99, 99 * time.Millisecond},
		{"max", s.Max, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if samples[0] != 100*time.Millisecond {
		t.Error("summarize must not reorder its input")
	}
}

func TestSummarize_Small(t *testing.T) {
	if s := summarize(nil); s != (summary{}) {
		t.Errorf("summarize(nil) = %+v", s)
	}

	s := summarize([]time.Duration{3 * time.Second})
	if s.P50 != 3*time.Second || s.P99 != 3*time.Second || s.Max != 3*time.Second {
		t.Errorf("summarize(one) = %+v", s)
	}
}

func TestGenerator(t *testing.T) {
	g := &generator{instruments: []string{"AIR", "VOW"}, size: 50}
	chunk := g.chunk()
	if len(chunk) != 50 {
		t.Fatalf("len = %d, want 50", len(chunk))
	}
	for _, r := range chunk {
		if r.Instrument != "AIR" && r.Instrument != "VOW" {
			t.Errorf("unexpected instrument %q", r.Instrument)
		}
		if len(r.Payload) != 8 {
			t.Errorf("payload len = %d", len(r.Payload))
		}
	}
}
