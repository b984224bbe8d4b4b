package stack

import (
	"testing"
)

func TestStack_New(t *testing.T) {
	s := New[int]()

	if !s.IsEmpty() {
		t.Error("New() stack should be empty")
	}

	if s.Size() != 0 {
		t.Errorf("New() stack size = %d, want 0", s.Size())
	}
}

func TestStack_NewWithCapacity(t *testing.T) {
	s := NewWithCapacity[string](10)

	if !s.IsEmpty() {
		t.Error("NewWithCapacity() stack should be empty")
	}
}

func TestStack_PushAndPop(t *testing.T) {
	s := New[int]()

	s.Push(1)
	s.Push(2)
	s.Push(3)

	if s.Size() != 3 {
		t.Errorf("Push() stack size = %d, want 3", s.Size())
	}

	// LIFO order
	val, ok := s.Pop()
	if !ok || val != 3 {
		t.Errorf("Pop() = %d, %t, want 3, true", val, ok)
	}

	val, ok = s.Pop()
	if !ok || val != 2 {
		t.Errorf("Pop() = %d, %t, want 2, true", val, ok)
	}

	val, ok = s.Pop()
	if !ok || val != 1 {
		t.Errorf("Pop() = %d, %t, want 1, true", val, ok)
	}

	_, ok = s.Pop()
	if ok {
		t.Error("Pop() on empty stack should return false")
	}
}

func TestStack_Peek(t *testing.T) {
	s := New[string]()

	if _, ok := s.Peek(); ok {
		t.Error("Peek() on empty stack should return false")
	}

	s.Push("bottom")
	s.Push("top")

	val, ok := s.Peek()
	if !ok || val != "top" {
		t.Errorf("Peek() = %q, %t, want \"top\", true", val, ok)
	}

	if s.Size() != 2 {
		t.Errorf("Peek() should not remove elements, size = %d, want 2", s.Size())
	}
}

func TestStack_PeekRef(t *testing.T) {
	s := New[int]()

	if ref := s.PeekRef(); ref != nil {
		t.Error("PeekRef() on empty stack should return nil")
	}

	s.Push(41)
	*s.PeekRef()++

	val, _ := s.Peek()
	if val != 42 {
		t.Errorf("PeekRef() modification not visible, got %d, want 42", val)
	}
}

func TestStack_At(t *testing.T) {
	s := New[int]()
	s.Push(10)
	s.Push(20)
	s.Push(30)

	if got := *s.At(0); got != 10 {
		t.Errorf("At(0) = %d, want 10", got)
	}
	if got := *s.At(2); got != 30 {
		t.Errorf("At(2) = %d, want 30", got)
	}

	*s.At(1) = 25
	if got := *s.At(1); got != 25 {
		t.Errorf("At(1) after write = %d, want 25", got)
	}
}

func TestStack_Reset(t *testing.T) {
	s := New[int]()
	s.Push(1)
	s.Push(2)

	s.Reset()

	if !s.IsEmpty() {
		t.Error("Reset() stack should be empty")
	}

	s.Push(3)
	if val, _ := s.Peek(); val != 3 {
		t.Errorf("Push() after Reset() = %d, want 3", val)
	}
}
