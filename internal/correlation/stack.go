package correlation

// Stack is the chain of open frames, outermost first.
type Stack struct {
	frames []Frame
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{frames: make([]Frame, 0, 16)}
}

// Push opens a new scope whose parent is the current tail.
func (s *Stack) Push(kind Kind, name string) Frame {
	f := Frame{
		kind:   kind,
		name:   name,
		index:  len(s.frames),
		parent: len(s.frames) - 1,
	}
	s.frames = append(s.frames, f)
	return f
}

// Pop removes and returns the innermost frame.
func (s *Stack) Pop() (Frame, error) {
	n := len(s.frames)
	if n == 0 {
		return Frame{}, ErrEmptyStack
	}
	f := s.frames[n-1]
	s.frames[n-1] = Frame{}
	s.frames = s.frames[:n-1]
	return f, nil
}

// PopKind pops the innermost frame and checks that it has the expected kind.
// The frame is removed even on mismatch.
func (s *Stack) PopKind(kind Kind) (Frame, error) {
	f, err := s.Pop()
	if err != nil {
		return Frame{}, err
	}
	if f.kind != kind {
		return f, &ViolationError{Want: kind, Got: f.kind, Frame: f.name}
	}
	return f, nil
}

// Peek returns the innermost frame without removing it.
func (s *Stack) Peek() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// FindNearest returns the innermost frame of the given kind.
func (s *Stack) FindNearest(kind Kind) (Frame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == kind {
			return s.frames[i], true
		}
	}
	return Frame{}, false
}

// Parent follows the back-reference of f. It reports false for the outermost
// frame and for frames that are no longer on the stack.
func (s *Stack) Parent(f Frame) (Frame, bool) {
	if f.parent == noParent || f.index >= len(s.frames) || s.frames[f.index] != f {
		return Frame{}, false
	}
	return s.frames[f.parent], true
}

// Depth is the number of open frames.
func (s *Stack) Depth() int { return len(s.frames) }

// Names lists open frame names, outermost first.
func (s *Stack) Names() []string {
	out := make([]string, 0, len(s.frames))
	for _, f := range s.frames {
		out = append(out, f.kind.String()+":"+f.name)
	}
	return out
}
