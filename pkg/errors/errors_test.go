package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeVersionConflict, "cannot merge %s with %s", "a-1", "a-2")

	if err.Code != ErrCodeVersionConflict {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeVersionConflict)
	}
	if err.Message != "cannot merge a-1 with a-2" {
		t.Errorf("Message = %q", err.Message)
	}
	want := "VERSION_CONFLICT: cannot merge a-1 with a-2"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeFetchFailed, cause, "downloading %s", "http://example.com/src.tar.gz")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() should include cause, got %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeRecipeNotFound, "no recipe for openexr")

	if !Is(err, ErrCodeRecipeNotFound) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeDependencyConflict) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeRecipeNotFound) {
		t.Error("Is should not match plain errors")
	}

	// Code matching through wrapping layers
	wrapped := fmt.Errorf("resolving: %w", err)
	if !Is(wrapped, ErrCodeRecipeNotFound) {
		t.Error("Is should unwrap to find the code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeCyclicDependency, "cycle")); got != ErrCodeCyclicDependency {
		t.Errorf("GetCode = %q", got)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeAmbiguousVariant, "python is unconstrained")
	if got := UserMessage(err); got != "python is unconstrained" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}

func TestChainPush(t *testing.T) {
	base := Chain{}.Push("resolving root-1.0")
	left := base.Push("candidate a-1.0 rejected")
	right := base.Push("candidate a-2.0 rejected")

	if len(base) != 1 {
		t.Fatalf("Push must not mutate the receiver, base = %v", base)
	}
	if left[1] == right[1] {
		t.Error("sibling branches should diverge after the shared prefix")
	}
	if left[0] != right[0] {
		t.Error("sibling branches should share the prefix")
	}
}

func TestChainString(t *testing.T) {
	c := Chain{}.Push("resolving usd-22.05").Push("requires boost-1.78")
	s := c.String()

	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), s)
	}
	if !strings.HasPrefix(lines[1], "  ") {
		t.Errorf("nested step should be indented: %q", lines[1])
	}
}

func TestWithChain(t *testing.T) {
	chain := Chain{}.Push("resolving a").Push("rejected b")
	err := New(ErrCodeDependencyConflict, "no candidate for b").WithChain(chain)

	got := GetChain(err)
	if len(got) != 2 {
		t.Fatalf("GetChain returned %d steps, want 2", len(got))
	}

	// Chain survives wrapping
	outer := Wrap(ErrCodeDependencyConflict, err, "resolving root")
	if got := GetChain(outer); len(got) != 2 {
		t.Errorf("GetChain through wrapping returned %d steps, want 2", len(got))
	}
}

func TestValidateFamilyName(t *testing.T) {
	valid := []string{"openexr", "python", "vs", "arch", "lib_foo", "pkg-2"}
	for _, name := range valid {
		if err := ValidateFamilyName(name); err != nil {
			t.Errorf("ValidateFamilyName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "../etc", "a/b", "a\\b", strings.Repeat("x", 300), "a\x00b"}
	for _, name := range invalid {
		if err := ValidateFamilyName(name); err == nil {
			t.Errorf("ValidateFamilyName(%q) = nil, want error", name)
		}
	}
}

func TestWithOptions(t *testing.T) {
	err := New(ErrCodeAmbiguousVariant, "pick one").WithOptions("python-3.9", "python-3.10")

	got := GetOptions(err)
	if len(got) != 2 || got[0] != "python-3.9" {
		t.Errorf("GetOptions = %v", got)
	}

	if GetOptions(New(ErrCodeInternal, "plain")) != nil {
		t.Error("errors without options should return nil")
	}
	if GetOptions(stderrors.New("not ours")) != nil {
		t.Error("foreign errors should return nil")
	}
}
