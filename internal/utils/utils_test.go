package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ca. 45.000 €": "45000",
		"keine Ahnung": "",
		"60k":          "60",
		"":             "",
		"1 2 3":        "123",
	}

	for input, expect := range tests {
		if got := DigitsOnly(input); got != expect {
			t.Fatalf("DigitsOnly(%q): expected %q, got %q", input, expect, got)
		}
	}
}

func TestWaitFor(t *testing.T) {
	original := sleep
	defer func() { sleep = original }()

	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("expected no error for zero duration, got %v", err)
	}
	if slept != 0 {
		t.Fatalf("expected no sleep for zero duration, got %s", slept)
	}

	if err := WaitFor(context.Background(), time.Second); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if slept != time.Second {
		t.Fatalf("expected to sleep 1s, got %s", slept)
	}
}

func TestWaitForCancelled(t *testing.T) {
	original := sleep
	defer func() { sleep = original }()

	block := make(chan struct{})
	defer close(block)
	sleep = func(time.Duration) { <-block }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
