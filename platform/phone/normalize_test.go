package phone

import "testing"

func TestNormalizeE164LocalNumber(t *testing.T) {
	got := NormalizeE164("90 123 45 67")
	if got != "+998901234567" {
		t.Fatalf("expected +998901234567, got %q", got)
	}
}

func TestNormalizeE164AlreadyInternational(t *testing.T) {
	got := NormalizeE164(" +998901234567 ")
	if got != "+998901234567" {
		t.Fatalf("expected +998901234567, got %q", got)
	}
}

func TestNormalizeE164InvalidReturnsTrimmedInput(t *testing.T) {
	got := NormalizeE164(" not-a-number ")
	if got != "not-a-number" {
		t.Fatalf("expected trimmed input back, got %q", got)
	}
}

func TestNormalizeE164Empty(t *testing.T) {
	if got := NormalizeE164("   "); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
