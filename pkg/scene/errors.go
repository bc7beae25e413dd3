package scene

import (
	"fmt"
	"strings"
)

// NotFoundError reports an id-addressed action against an entity absent from
// its sequence. Actions fail with it before publishing anything.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ValidationError reports a malformed inbound scene document. It is raised
// only while ingesting untrusted scenes and always aborts before any
// mutation.
type ValidationError struct {
	Issues []string
}

func (e ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid scene document"
	}
	return "invalid scene document: " + strings.Join(e.Issues, "; ")
}
