package models

import (
	"testing"
	"time"
)

func TestValidateYear(t *testing.T) {
	if err := ValidateYear(0); err != nil {
		t.Fatalf("year 0 should mean unknown, got error: %v", err)
	}
	if err := ValidateYear(1888); err != nil {
		t.Fatalf("1888 should be valid, got error: %v", err)
	}
	if err := ValidateYear(time.Now().Year() + 1); err != nil {
		t.Fatalf("next year should be valid, got error: %v", err)
	}
	if err := ValidateYear(1887); err == nil {
		t.Fatalf("expected error for year 1887")
	}
	if err := ValidateYear(time.Now().Year() + 2); err == nil {
		t.Fatalf("expected error for year beyond next year")
	}
}

func TestValidateRating(t *testing.T) {
	for _, r := range []float64{0, 7.5, 10} {
		if err := ValidateRating(r); err != nil {
			t.Fatalf("rating %v should be valid, got error: %v", r, err)
		}
	}
	for _, r := range []float64{-0.1, 10.1} {
		if err := ValidateRating(r); err == nil {
			t.Fatalf("expected error for rating %v", r)
		}
	}
}

func TestValidatePosterURL(t *testing.T) {
	if err := ValidatePosterURL(""); err != nil {
		t.Fatalf("empty poster url should be allowed, got error: %v", err)
	}
	if err := ValidatePosterURL("https://img.example/poster.jpg"); err != nil {
		t.Fatalf("https url should be allowed, got error: %v", err)
	}
	for _, raw := range []string{"ftp://img.example/p.jpg", "javascript:alert(1)", "not a url"} {
		if err := ValidatePosterURL(raw); err == nil {
			t.Fatalf("expected error for poster url %q", raw)
		}
	}
}

func TestValidateUserName(t *testing.T) {
	if err := ValidateUserName("Ada Lovelace"); err != nil {
		t.Fatalf("expected valid name, got error: %v", err)
	}
	for _, name := range []string{"", "   ", "robo7", "a;b"} {
		if err := ValidateUserName(name); err == nil {
			t.Fatalf("expected error for name %q", name)
		}
	}
}

func TestMoviePatchIsEmpty(t *testing.T) {
	if !(MoviePatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}
	title := "Dune"
	if (MoviePatch{Title: &title}).IsEmpty() {
		t.Fatalf("patch with title should not be empty")
	}
}
