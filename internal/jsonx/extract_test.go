package jsonx

import (
	"errors"
	"testing"
)

func TestExtractArray_Clean(t *testing.T) {
	got, err := ExtractArray(`["beach", "sunset", "homestay"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"beach", "sunset", "homestay"}
	assertStrings(t, got, want)
}

func TestExtractArray_SurroundingCommentary(t *testing.T) {
	text := "Sure! Here are the topics you asked for:\n[\"rice fields\", \"farm stay\"]\nLet me know if you need more."
	got, err := ExtractArray(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertStrings(t, got, []string{"rice fields", "farm stay"})
}

func TestExtractArray_NestedBrackets(t *testing.T) {
	// The balanced span includes the nested array; elements are stringified.
	got, err := ExtractArray(`noise [["a","b"],"c"] trailing`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 elements, got %d: %v", len(got), got)
	}
	if got[1] != "c" {
		t.Errorf("got[1] = %q, want %q", got[1], "c")
	}
}

func TestExtractArray_BracketInsideString(t *testing.T) {
	got, err := ExtractArray(`["open [ bracket", "closed ] bracket"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertStrings(t, got, []string{"open [ bracket", "closed ] bracket"})
}

func TestExtractArray_EscapedQuote(t *testing.T) {
	got, err := ExtractArray(`["say \"hi\""]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertStrings(t, got, []string{`say "hi"`})
}

func TestExtractArray_NoArray(t *testing.T) {
	if _, err := ExtractArray("the model refused to answer"); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractArray_Unbalanced(t *testing.T) {
	if _, err := ExtractArray(`["never", "closed"`); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractArray_MalformedJSON(t *testing.T) {
	if _, err := ExtractArray(`[not, valid, json]`); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractArray_Empty(t *testing.T) {
	got, err := ExtractArray("prefix [] suffix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestExtractArray_NumbersStringified(t *testing.T) {
	got, err := ExtractArray(`[1, 2, "three"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertStrings(t, got, []string{"1", "2", "three"})
}

func assertStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
