package engine

import (
	"time"

	"github.com/google/uuid"

	"buildlog/internal/logging"
)

var buildNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:buildlog:build"))

// BuildID derives the build identifier from the root project path and the
// build start time. Equal inputs always give the same ID.
func BuildID(rootProject string, started time.Time) string {
	name := rootProject + "\x00" + started.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(buildNamespace, []byte(name)).String()
}

// buildContext is fixed once the root project is known and travels with
// every record rendered afterwards.
type buildContext struct {
	buildID string
}

func newBuildContext(rootProject string, started time.Time) buildContext {
	return buildContext{buildID: BuildID(rootProject, started)}
}

func (c buildContext) attrs() []logging.Attr {
	if c.buildID == "" {
		return nil
	}
	return []logging.Attr{logging.String(logging.FieldBuildID, c.buildID)}
}
