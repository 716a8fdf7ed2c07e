package logging

// Contextual tags attached to build records.
const (
	FieldBuildID           = "BuildID"
	FieldProjectPath       = "ProjectPath"
	FieldTargetName        = "TargetName"
	FieldTaskName          = "TaskName"
	FieldEnvironment       = "Environment"
	FieldProperties        = "Properties"
	FieldTargetOutputItems = "TargetOutputItems"
	FieldWarnings          = "Warnings"
	FieldErrors            = "Errors"
	FieldTimeElapsed       = "TimeElapsed"
	FieldCode              = "Code"
	FieldFile              = "File"
	FieldLineNumber        = "LineNumber"
	FieldColumnNumber      = "ColumnNumber"
)

const (
	// FieldMessageTemplate holds the unrendered template of a build record.
	FieldMessageTemplate = "MessageTemplate"
	// FieldParameters carries the host's logger parameter string untouched.
	FieldParameters = "LoggerParameters"
	// FieldComponent names the subsystem of the tool's own diagnostics.
	FieldComponent = "component"
)
