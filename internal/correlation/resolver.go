package correlation

// Tags are the ancestor identifiers attached to a log record. Empty fields
// were not found in the open ancestry and must not be emitted.
type Tags struct {
	ProjectPath string
	TargetName  string
	TaskName    string
}

// Empty reports whether no ancestor was found.
func (t Tags) Empty() bool {
	return t.ProjectPath == "" && t.TargetName == "" && t.TaskName == ""
}

// Resolve scans the stack from the innermost frame outward and stops at the
// nearest project. A task only counts when it is the innermost frame and a
// target only counts when it sits inside that nearest project.
func Resolve(s *Stack) Tags {
	var tags Tags
	var task, target bool
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		switch f.kind {
		case KindTask:
			if !task && !target {
				tags.TaskName = f.name
				task = true
			}
		case KindTarget:
			if !target {
				tags.TargetName = f.name
				target = true
			}
		case KindProject:
			tags.ProjectPath = f.name
			return tags
		}
	}
	return tags
}
