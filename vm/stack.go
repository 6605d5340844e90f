package vm

import (
	"errors"
	"fmt"
)

// DefaultStackSize is the capacity of a RuntimeStack unless configured.
const DefaultStackSize = 1024

var (
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrBadSlot        = errors.New("slot out of range")
)

// Stack is a fixed-capacity stack of values. It holds both operands and
// local variable slots, which are addressed by absolute index.
type Stack struct {
	values []RuntimeValue
	top    int
}

// NewStack creates an empty stack holding at most capacity values.
func NewStack(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultStackSize
	}
	return &Stack{values: make([]RuntimeValue, capacity)}
}

// Count returns the number of values on the stack.
func (s *Stack) Count() int { return s.top }

// Capacity returns the maximum number of values.
func (s *Stack) Capacity() int { return len(s.values) }

func (s *Stack) Push(v RuntimeValue) error {
	if s.top >= len(s.values) {
		return ErrStackOverflow
	}
	s.values[s.top] = v
	s.top++
	return nil
}

func (s *Stack) Pop() (RuntimeValue, error) {
	if s.top == 0 {
		return RuntimeValue{}, ErrStackUnderflow
	}
	s.top--
	v := s.values[s.top]
	s.values[s.top] = RuntimeValue{}
	return v, nil
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() (RuntimeValue, error) {
	if s.top == 0 {
		return RuntimeValue{}, ErrStackUnderflow
	}
	return s.values[s.top-1], nil
}

// Get returns the value at absolute index i.
func (s *Stack) Get(i int) (RuntimeValue, error) {
	if i < 0 || i >= s.top {
		return RuntimeValue{}, fmt.Errorf("%w: %d of %d", ErrBadSlot, i, s.top)
	}
	return s.values[i], nil
}

// Set overwrites the value at absolute index i.
func (s *Stack) Set(i int, v RuntimeValue) error {
	if i < 0 || i >= s.top {
		return fmt.Errorf("%w: %d of %d", ErrBadSlot, i, s.top)
	}
	s.values[i] = v
	return nil
}

// Truncate drops values until n remain.
func (s *Stack) Truncate(n int) error {
	if n < 0 || n > s.top {
		return ErrStackUnderflow
	}
	for i := n; i < s.top; i++ {
		s.values[i] = RuntimeValue{}
	}
	s.top = n
	return nil
}

// Values returns a copy of the stack contents, bottom first.
func (s *Stack) Values() []RuntimeValue {
	return append([]RuntimeValue(nil), s.values[:s.top]...)
}
