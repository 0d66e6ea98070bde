package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known owner kinds.
const (
	KindCommit  = "commit"
	KindProject = "project"
)

// OwnerRef names the domain entity a job's in-flight status is attributed
// to, such as a commit. It is a weak reference: the entity may be deleted
// while jobs it owns are still running.
type OwnerRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Commit returns the reference for a commit.
func Commit(commitID int64) OwnerRef {
	return OwnerRef{Kind: KindCommit, ID: strconv.FormatInt(commitID, 10)}
}

// Project returns the reference for a project.
func Project(projectID int64) OwnerRef {
	return OwnerRef{Kind: KindProject, ID: strconv.FormatInt(projectID, 10)}
}

// IsZero reports whether the reference is unset.
func (o OwnerRef) IsZero() bool { return o.Kind == "" && o.ID == "" }

// Valid reports whether both parts are set and free of the separator.
func (o OwnerRef) Valid() bool {
	return o.Kind != "" && o.ID != "" && !strings.Contains(o.Kind, ":")
}

// String renders the reference as "kind:id".
func (o OwnerRef) String() string { return o.Kind + ":" + o.ID }

// ParseOwnerRef parses "kind:id".
func ParseOwnerRef(s string) (OwnerRef, error) {
	kind, ref, ok := strings.Cut(s, ":")
	o := OwnerRef{Kind: kind, ID: ref}
	if !ok || !o.Valid() {
		return OwnerRef{}, fmt.Errorf("registry: parse owner %q: want kind:id", s)
	}
	return o, nil
}
