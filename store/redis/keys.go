package redis

import (
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/registry"
)

// All keys are prefixed, "shuttle:" by default, to avoid collisions.
const defaultPrefix = "shuttle:"

type keyspace struct {
	prefix string
}

// lock returns the key holding a job lock: shuttle:lock:{jobkey}
func (k keyspace) lock(key jobkey.Key) string { return k.prefix + "lock:" + string(key) }

// active returns the Set of in-flight execution IDs: shuttle:active:{kind}:{id}
func (k keyspace) active(owner registry.OwnerRef) string {
	return k.prefix + "active:" + owner.String()
}
