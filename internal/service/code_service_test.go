package service

import (
	"strings"
	"testing"

	"github.com/certlab/certlab-backend/internal/model"
)

func TestRandomCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := randomCode()
		if err != nil {
			t.Fatalf("randomCode returned error: %v", err)
		}
		if len(code) != model.CodeLength {
			t.Fatalf("expected length %d, got %d (%q)", model.CodeLength, len(code), code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	// 200 draws from a 36^8 space colliding down to a handful would mean
	// the generator is broken.
	if len(seen) < 190 {
		t.Errorf("expected near-unique codes, got %d distinct of 200", len(seen))
	}
}
