// Copyright © 2024 Galvanized Logic Inc.

package physics

import "hash/fnv"

// hash.go implements the 32 and 64-bit string hashes used to key
// actor classes, materials, collision filters and config resources.

// StringId32 hashes s into the 32-bit identifier used for actor-class,
// material and collision-filter lookups in a PhysicsConfigResource.
func StringId32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// StringId64 hashes s into the 64-bit identifier used for config
// resource names. The default physics config is StringId64("global").
func StringId64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
