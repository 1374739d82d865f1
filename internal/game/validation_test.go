package game

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateNameCollapsesWhitespace(t *testing.T) {
	name, err := ValidateName("  Ada   Lovelace ", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Ada Lovelace" {
		t.Fatalf("expected collapsed name, got %q", name)
	}
}

func TestValidateNameRejects(t *testing.T) {
	cases := map[string]string{
		"empty":    "   ",
		"too long": strings.Repeat("x", 21),
		"control":  "bad\x00name",
	}
	for label, input := range cases {
		if _, err := ValidateName(input, 20); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", label, err)
		}
	}
}

func TestValidateInventionCountsRunes(t *testing.T) {
	if err := ValidateInvention(strings.Repeat("é", 140), 140); err != nil {
		t.Fatalf("expected 140 runes to pass, got %v", err)
	}
	if err := ValidateInvention(strings.Repeat("é", 141), 140); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := ValidateInvention(" \n\t", 140); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected blank invention to fail, got %v", err)
	}
	if err := ValidateInvention("\xff\xfe", 140); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid utf-8 to fail, got %v", err)
	}
}

func TestValidatePitchAllowsEmpty(t *testing.T) {
	if err := ValidatePitch("", 10); err != nil {
		t.Fatalf("expected empty pitch to pass, got %v", err)
	}
	if err := ValidatePitch(strings.Repeat("a", 11), 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestValidateDrawing(t *testing.T) {
	if err := ValidateDrawing("", 100); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty drawing to fail, got %v", err)
	}
	if err := ValidateDrawing("data:image/png;base64,AAAA", 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected oversized drawing to fail, got %v", err)
	}
	for _, bad := range []string{"AAAA", "javascript:alert(1)", "data:text/html;base64,AAAA", "data:image/png;base64,!!!!", "data:image/png;base64,"} {
		if err := ValidateDrawing(bad, 100); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected %q to be rejected, got %v", bad, err)
		}
	}
	if err := ValidateDrawing("data:image/png;base64,AAAA", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoomCodes(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := newRoomCode(4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 4 {
			t.Fatalf("expected 4 characters, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(roomCodeAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, code)
			}
		}
		if !validRoomID(code) {
			t.Fatalf("generated code %q does not validate", code)
		}
	}
	if _, err := newRoomCode(0); err == nil {
		t.Fatalf("expected error for zero length")
	}
	if got := NormalizeRoomID(" abcd "); got != "ABCD" {
		t.Fatalf("expected ABCD, got %q", got)
	}
	if validRoomID("AB/CD") || validRoomID("") {
		t.Fatalf("expected invalid room ids to be rejected")
	}
}

func TestPlayerIDs(t *testing.T) {
	id := NewPlayerID()
	if !strings.HasPrefix(id, "player_") || !ValidPlayerID(id) {
		t.Fatalf("unexpected player id %q", id)
	}
	if NewPlayerID() == id {
		t.Fatalf("expected fresh ids")
	}
	if ValidPlayerID("a b") || ValidPlayerID("x/y") || ValidPlayerID("") {
		t.Fatalf("expected invalid player ids to be rejected")
	}
}
