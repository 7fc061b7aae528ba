package timeutil

import "testing"

func TestParseAndString(t *testing.T) {
	tm, err := Parse("08:05:09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := tm.String(), "08:05:09"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestNewRangeValidation(t *testing.T) {
	if _, err := New(24, 0, 0); err == nil {
		t.Fatal("expected error for hour 24")
	}
	if _, err := New(0, 60, 0); err == nil {
		t.Fatal("expected error for minute 60")
	}
	if _, err := New(0, 0, 61); err == nil {
		t.Fatal("expected error for second 61")
	}
}

func TestArithmetic(t *testing.T) {
	a, _ := New(8, 0, 0)
	b := a.Add(3700)
	if got, want := b.String(), "09:01:40"; got != want {
		t.Fatalf("Add = %q, want %q", got, want)
	}
	delta := b.Minus(a)
	if delta.Seconds() != 3700 {
		t.Fatalf("Minus = %d, want 3700", delta.Seconds())
	}
}

func TestOrdering(t *testing.T) {
	a, _ := New(8, 0, 0)
	b, _ := New(9, 0, 0)
	if !a.Before(b) || a.After(b) || !a.BeforeEqual(b) {
		t.Fatal("ordering broken")
	}
	if !a.Equal(a) {
		t.Fatal("equal broken")
	}
}

func TestDistanceToDuration(t *testing.T) {
	if got, want := DistanceToDuration(10, 36), int64(1000); got != want {
		t.Fatalf("DistanceToDuration = %d, want %d", got, want)
	}
}
