package shuttle

import "github.com/dai/shuttle/id"

// ID is the identifier type for executions and workers.
type ID = id.ID

// Prefix identifies the entity type encoded in an ID.
type Prefix = id.Prefix
