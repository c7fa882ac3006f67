package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorInvalid, "invalid"},
		{ErrorExists, "exists"},
		{ErrorNotFound, "not_found"},
		{ErrorInternal, "internal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"empty domain", ErrEmptyDomain, true},
		{"zero capacity", ErrZeroCapacity, true},
		{"empty domain set", ErrEmptyDomainSet, true},
		{"nil channel", ErrNilChannel, true},
		{"wrapped invalid", fmt.Errorf("channel setup: %w", ErrZeroCapacity), true},
		{"classified invalid", WrapInvalid(errors.New("bad"), "Channel", "New", "validation"), true},
		{"not found", ErrNotFound, false},
		{"already exists", ErrAlreadyExists, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsInvalid(test.err); got != test.expected {
				t.Errorf("IsInvalid(%v) = %v, want %v", test.err, got, test.expected)
			}
		})
	}
}

func TestIsExists(t *testing.T) {
	if !IsExists(ErrAlreadyExists) {
		t.Error("expected ErrAlreadyExists to classify as exists")
	}
	if !IsExists(ErrDuplicateMember) {
		t.Error("expected ErrDuplicateMember to classify as exists")
	}
	if !IsExists(WrapExists(errors.New("dup"), "Registry", "CreateNamespace", "duplicate check")) {
		t.Error("expected classified exists error to classify as exists")
	}
	if IsExists(ErrNotFound) {
		t.Error("ErrNotFound must not classify as exists")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(ErrNotFound) {
		t.Error("expected ErrNotFound to classify as not found")
	}
	if !IsNotFound(fmt.Errorf("lookup swarm: %w", ErrNotFound)) {
		t.Error("expected wrapped ErrNotFound to classify as not found")
	}
	if IsNotFound(ErrInvalidArgument) {
		t.Error("ErrInvalidArgument must not classify as not found")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"invalid", ErrZeroCapacity, ErrorInvalid},
		{"exists", ErrAlreadyExists, ErrorExists},
		{"not found", ErrNotFound, ErrorNotFound},
		{"unknown defaults to internal", errors.New("mystery"), ErrorInternal},
		{"internal sentinel", ErrInternal, ErrorInternal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("Classify(%v) = %v, want %v", test.err, got, test.expected)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("queue full")
	wrapped := Wrap(base, "Channel", "Send", "enqueue")

	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}
	if !strings.Contains(wrapped.Error(), "Channel.Send: enqueue failed") {
		t.Errorf("unexpected wrap format: %s", wrapped.Error())
	}
	if Wrap(nil, "Channel", "Send", "enqueue") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("boom")

	var ce *ClassifiedError
	if !errors.As(WrapNotFound(base, "Registry", "Namespace", "lookup"), &ce) {
		t.Fatal("expected a ClassifiedError")
	}
	if ce.Class != ErrorNotFound {
		t.Errorf("expected ErrorNotFound class, got %v", ce.Class)
	}
	if ce.Component != "Registry" || ce.Operation != "Namespace" {
		t.Errorf("unexpected context: %s.%s", ce.Component, ce.Operation)
	}
	if !errors.Is(ce, base) {
		t.Error("classified error should unwrap to base")
	}

	if WrapInvalid(nil, "a", "b", "c") != nil ||
		WrapExists(nil, "a", "b", "c") != nil ||
		WrapNotFound(nil, "a", "b", "c") != nil ||
		WrapInternal(nil, "a", "b", "c") != nil {
		t.Error("wrapping nil should return nil for all classes")
	}
}
