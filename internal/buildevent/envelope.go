package buildevent

import (
	"fmt"
	"time"
)

// envelope is the wire form shared by the NDJSON and MessagePack codecs.
type envelope struct {
	Type        Type      `json:"type" msgpack:"type"`
	Timestamp   time.Time `json:"timestamp" msgpack:"timestamp"`
	Message     string    `json:"message,omitempty" msgpack:"message,omitempty"`
	Succeeded   bool      `json:"succeeded,omitempty" msgpack:"succeeded,omitempty"`
	Environment any       `json:"environment,omitempty" msgpack:"environment,omitempty"`
	ProjectFile string    `json:"projectFile,omitempty" msgpack:"projectFile,omitempty"`
	TargetNames []string  `json:"targetNames,omitempty" msgpack:"targetNames,omitempty"`
	Properties  any       `json:"properties,omitempty" msgpack:"properties,omitempty"`
	TargetName  string    `json:"targetName,omitempty" msgpack:"targetName,omitempty"`
	TargetFile  string    `json:"targetFile,omitempty" msgpack:"targetFile,omitempty"`
	Outputs     []string  `json:"outputs,omitempty" msgpack:"outputs,omitempty"`
	TaskName    string    `json:"taskName,omitempty" msgpack:"taskName,omitempty"`
	Code        string    `json:"code,omitempty" msgpack:"code,omitempty"`
	File        string    `json:"file,omitempty" msgpack:"file,omitempty"`
	Line        int       `json:"line,omitempty" msgpack:"line,omitempty"`
	Column      int       `json:"column,omitempty" msgpack:"column,omitempty"`
	Importance  string    `json:"importance,omitempty" msgpack:"importance,omitempty"`
}

func (env envelope) event() (Event, error) {
	h := Header{Timestamp: env.Timestamp}
	diag := Diagnostic{Code: env.Code, File: env.File, Line: env.Line, Column: env.Column}
	switch env.Type {
	case TypeBuildStarted:
		return BuildStarted{Header: h, Environment: env.Environment}, nil
	case TypeBuildFinished:
		return BuildFinished{Header: h, Message: env.Message, Succeeded: env.Succeeded}, nil
	case TypeProjectStarted:
		return ProjectStarted{Header: h, ProjectFile: env.ProjectFile, TargetNames: env.TargetNames, Properties: env.Properties}, nil
	case TypeProjectFinished:
		return ProjectFinished{Header: h, Message: env.Message}, nil
	case TypeTargetStarted:
		return TargetStarted{Header: h, TargetName: env.TargetName, TargetFile: env.TargetFile}, nil
	case TypeTargetFinished:
		return TargetFinished{Header: h, Message: env.Message, Outputs: env.Outputs}, nil
	case TypeTaskStarted:
		return TaskStarted{Header: h, TaskName: env.TaskName}, nil
	case TypeTaskFinished:
		return TaskFinished{Header: h, Message: env.Message}, nil
	case TypeErrorRaised:
		return ErrorRaised{Header: h, Diagnostic: diag, Message: env.Message}, nil
	case TypeWarningRaised:
		return WarningRaised{Header: h, Diagnostic: diag, Message: env.Message}, nil
	case TypeMessageRaised:
		importance, err := ParseImportance(env.Importance)
		if err != nil {
			return nil, err
		}
		return MessageRaised{Header: h, Message: env.Message, Importance: importance}, nil
	case TypeCustomRaised:
		return CustomRaised{Header: h, Message: env.Message}, nil
	case "":
		return nil, fmt.Errorf("event envelope missing type")
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

func toEnvelope(ev Event) (envelope, error) {
	env := envelope{Type: ev.EventType(), Timestamp: ev.EventTime()}
	switch e := ev.(type) {
	case BuildStarted:
		env.Environment = e.Environment
	case BuildFinished:
		env.Message = e.Message
		env.Succeeded = e.Succeeded
	case ProjectStarted:
		env.ProjectFile = e.ProjectFile
		env.TargetNames = e.TargetNames
		env.Properties = e.Properties
	case ProjectFinished:
		env.Message = e.Message
	case TargetStarted:
		env.TargetName = e.TargetName
		env.TargetFile = e.TargetFile
	case TargetFinished:
		env.Message = e.Message
		env.Outputs = e.Outputs
	case TaskStarted:
		env.TaskName = e.TaskName
	case TaskFinished:
		env.Message = e.Message
	case ErrorRaised:
		env.Message = e.Message
		env.setDiagnostic(e.Diagnostic)
	case WarningRaised:
		env.Message = e.Message
		env.setDiagnostic(e.Diagnostic)
	case MessageRaised:
		env.Message = e.Message
		env.Importance = e.Importance.String()
	case CustomRaised:
		env.Message = e.Message
	default:
		return envelope{}, fmt.Errorf("unsupported event %T", ev)
	}
	return env, nil
}

func (env *envelope) setDiagnostic(d Diagnostic) {
	env.Code = d.Code
	env.File = d.File
	env.Line = d.Line
	env.Column = d.Column
}
