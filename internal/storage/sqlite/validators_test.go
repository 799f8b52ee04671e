package sqlite

import "testing"

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON(`{"a":1}`); err != nil {
		t.Errorf("expected well-formed JSON to validate, got %v", err)
	}
	if err := ValidateJSON(`{a:1}`); err == nil {
		t.Errorf("expected malformed JSON to be rejected")
	}
}

func TestCoerceInteger(t *testing.T) {
	got, err := CoerceInteger("3.9")
	if err != nil {
		t.Fatalf("CoerceInteger: %v", err)
	}
	if got != 3 {
		t.Errorf("CoerceInteger(3.9) = %d, want truncation to 3", got)
	}
	if _, err := CoerceInteger("not-a-number"); err == nil {
		t.Errorf("expected error for non-numeric input")
	}
}

func TestDateRoundTrip(t *testing.T) {
	day, err := CoerceDate("1990-07-04")
	if err != nil {
		t.Fatalf("CoerceDate: %v", err)
	}
	if got, want := RenderDate(day), "1990-07-04"; got != want {
		t.Errorf("RenderDate(%d) = %q, want %q", day, got, want)
	}

	// Reading the rendered value back and re-coercing is a fixed point
	// (spec.md §8 round-trip property).
	day2, err := CoerceDate(RenderDate(day))
	if err != nil {
		t.Fatalf("CoerceDate(RenderDate(day)): %v", err)
	}
	if day2 != day {
		t.Errorf("date round-trip not a fixed point: %d != %d", day2, day)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	frac, err := CoerceTimestamp("2024-01-15T10:30:00Z")
	if err != nil {
		t.Fatalf("CoerceTimestamp: %v", err)
	}
	rendered := RenderTimestamp(frac)
	frac2, err := CoerceTimestamp(rendered)
	if err != nil {
		t.Fatalf("CoerceTimestamp(RenderTimestamp(frac)): %v", err)
	}
	if rendered2 := RenderTimestamp(frac2); rendered2 != rendered {
		t.Errorf("timestamp round-trip not a fixed point: %q != %q", rendered2, rendered)
	}
}
