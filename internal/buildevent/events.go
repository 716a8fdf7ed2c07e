package buildevent

import (
	"fmt"
	"strings"
	"time"
)

// Type names an event in the wire envelope.
type Type string

const (
	TypeBuildStarted    Type = "BuildStarted"
	TypeBuildFinished   Type = "BuildFinished"
	TypeProjectStarted  Type = "ProjectStarted"
	TypeProjectFinished Type = "ProjectFinished"
	TypeTargetStarted   Type = "TargetStarted"
	TypeTargetFinished  Type = "TargetFinished"
	TypeTaskStarted     Type = "TaskStarted"
	TypeTaskFinished    Type = "TaskFinished"
	TypeErrorRaised     Type = "ErrorRaised"
	TypeWarningRaised   Type = "WarningRaised"
	TypeMessageRaised   Type = "MessageRaised"
	TypeCustomRaised    Type = "CustomRaised"
)

// Event is implemented by every payload type in this package.
type Event interface {
	EventType() Type
	EventTime() time.Time
}

// Header carries fields shared by all events.
type Header struct {
	Timestamp time.Time
}

// EventTime returns the event timestamp.
func (h Header) EventTime() time.Time { return h.Timestamp }

// BuildStarted opens a build. Environment is expected to hold string-keyed
// pairs but is kept untyped so malformed host data can be detected later.
type BuildStarted struct {
	Header
	Environment any
}

type BuildFinished struct {
	Header
	Message   string
	Succeeded bool
}

// ProjectStarted opens a project. Properties follows the same convention as
// BuildStarted.Environment.
type ProjectStarted struct {
	Header
	ProjectFile string
	TargetNames []string
	Properties  any
}

type ProjectFinished struct {
	Header
	Message string
}

type TargetStarted struct {
	Header
	TargetName string
	TargetFile string
}

// TargetFinished carries the names of the target's output items.
type TargetFinished struct {
	Header
	Message string
	Outputs []string
}

type TaskStarted struct {
	Header
	TaskName string
}

type TaskFinished struct {
	Header
	Message string
}

// Diagnostic holds the optional source location of an error or warning.
type Diagnostic struct {
	Code   string
	File   string
	Line   int
	Column int
}

type ErrorRaised struct {
	Header
	Diagnostic
	Message string
}

type WarningRaised struct {
	Header
	Diagnostic
	Message string
}

type MessageRaised struct {
	Header
	Message    string
	Importance Importance
}

type CustomRaised struct {
	Header
	Message string
}

func (BuildStarted) EventType() Type    { return TypeBuildStarted }
func (BuildFinished) EventType() Type   { return TypeBuildFinished }
func (ProjectStarted) EventType() Type  { return TypeProjectStarted }
func (ProjectFinished) EventType() Type { return TypeProjectFinished }
func (TargetStarted) EventType() Type   { return TypeTargetStarted }
func (TargetFinished) EventType() Type  { return TypeTargetFinished }
func (TaskStarted) EventType() Type     { return TypeTaskStarted }
func (TaskFinished) EventType() Type    { return TypeTaskFinished }
func (ErrorRaised) EventType() Type     { return TypeErrorRaised }
func (WarningRaised) EventType() Type   { return TypeWarningRaised }
func (MessageRaised) EventType() Type   { return TypeMessageRaised }
func (CustomRaised) EventType() Type    { return TypeCustomRaised }

// Importance ranks informational messages.
type Importance uint8

const (
	ImportanceHigh Importance = iota
	ImportanceNormal
	ImportanceLow
)

func (i Importance) String() string {
	switch i {
	case ImportanceHigh:
		return "high"
	case ImportanceNormal:
		return "normal"
	case ImportanceLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseImportance accepts high, normal or low (case-insensitive). Empty input
// means normal.
func ParseImportance(value string) (Importance, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return ImportanceHigh, nil
	case "normal", "":
		return ImportanceNormal, nil
	case "low":
		return ImportanceLow, nil
	default:
		return ImportanceNormal, fmt.Errorf("invalid importance %q (expected: high|normal|low)", value)
	}
}
