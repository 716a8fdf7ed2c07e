package correlation

// Kind identifies the scope a Frame represents.
type Kind uint8

const (
	KindProject Kind = iota + 1
	KindTarget
	KindTask
)

// String returns the lowercase scope name.
func (k Kind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindTarget:
		return "target"
	case KindTask:
		return "task"
	default:
		return "unknown"
	}
}

// noParent marks the outermost frame.
const noParent = -1

// Frame is one open scope. Frames are values; the parent link is the index of
// the enclosing frame in the owning Stack.
type Frame struct {
	kind   Kind
	name   string
	index  int
	parent int
}

// Kind reports the scope kind.
func (f Frame) Kind() Kind { return f.kind }

// Name is the project file path, target name or task name.
func (f Frame) Name() string { return f.name }

// Depth is the zero-based position of the frame in its stack.
func (f Frame) Depth() int { return f.index }

// HasParent reports whether the frame was pushed onto a non-empty stack.
func (f Frame) HasParent() bool { return f.parent != noParent }
