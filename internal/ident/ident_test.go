package ident

import (
	"net/url"
	"strings"
	"testing"
)

func TestResolveOrder(t *testing.T) {
	v := url.Values{}
	v.Set("id", "last")
	v.Set("ResponseID", "third")
	if got := Resolve(v); got != "third" {
		t.Fatalf("want ResponseID before id, got %q", got)
	}
	v.Set("pid", "first")
	if got := Resolve(v); got != "first" {
		t.Fatalf("want pid first, got %q", got)
	}
}

func TestResolveFallback(t *testing.T) {
	if got := Resolve(nil); got != Fallback {
		t.Fatalf("nil params: got %q", got)
	}
	if got := Resolve(url.Values{}); got != Fallback {
		t.Fatalf("empty params: got %q", got)
	}
	v := url.Values{}
	v.Set("pid", "")
	v.Set("unrelated", "x")
	if got := Resolve(v); got != Fallback {
		t.Fatalf("blank pid: got %q", got)
	}
}

func TestSlugCollapsesUnsafeRuns(t *testing.T) {
	if got := Slug("abc 123!"); got != "abc_123_" {
		t.Fatalf("want abc_123_, got %q", got)
	}
	if got := Slug("  R_42.a-b  "); got != "r_42.a-b" {
		t.Fatalf("want r_42.a-b, got %q", got)
	}
	if got := Slug("a///b???c"); got != "a_b_c" {
		t.Fatalf("runs must collapse to one underscore, got %q", got)
	}
}

func TestSlugIdempotent(t *testing.T) {
	for _, pid := range []string{"abc 123!", "R42", "anon", "ホゲ", ""} {
		once := Slug(pid)
		if twice := Slug(once); twice != once {
			t.Fatalf("Slug(%q): %q then %q", pid, once, twice)
		}
	}
}

func TestSlugSafeInputsUnchanged(t *testing.T) {
	// Already-safe lowercase pids map to themselves, so no two distinct
	// safe pids can share a slug.
	for _, pid := range []string{"a", "a.b", "a-b", "a_b", "0123"} {
		if got := Slug(pid); got != pid {
			t.Fatalf("Slug(%q) = %q, want unchanged", pid, got)
		}
	}
}

func TestSlugEmptyGetsAnonymousIdentity(t *testing.T) {
	got := Slug("   ")
	if !strings.HasPrefix(got, "anon_") {
		t.Fatalf("want anon_ prefix, got %q", got)
	}
	if len(got) != len("anon_")+8 {
		t.Fatalf("want 8 random chars, got %q", got)
	}
}
