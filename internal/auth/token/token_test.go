package token

import "testing"

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode(4)
		if err != nil {
			t.Fatalf("GenerateNumericCode: %v", err)
		}
		if len(code) != 4 {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
	}
}

func TestHashSHA256Deterministic(t *testing.T) {
	a := HashSHA256("1234")
	b := HashSHA256("1234")
	if a != b {
		t.Error("hash must be deterministic")
	}
	if a == HashSHA256("1235") {
		t.Error("different inputs must not collide trivially")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d", len(a))
	}
}

func TestGenerateRandomTokenUnique(t *testing.T) {
	a, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	b, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	if a == b {
		t.Error("two random tokens must differ")
	}
}
