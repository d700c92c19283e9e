// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// config.go loads the shared, read-only PhysicsConfigResource that
// actors resolve their class/material/filter records from: a yaml
// document decoded into maps keyed by a string hash.

// ActorClassFlags are bits on an actor class record.
type ActorClassFlags uint32

const (
	ActorClassKinematic ActorClassFlags = 1 << iota
	ActorClassDynamic
	ActorClassTrigger
)

// ActorClass carries the per-class damping and behavior flags shared
// by every actor created with that class.
type ActorClass struct {
	LinearDamping  float32
	AngularDamping float32
	Flags          ActorClassFlags
}

// Material carries friction/restitution coefficients shared by every
// actor created with that material.
type Material struct {
	Restitution      float32
	Friction         float32
	RollingFriction  float32
	SpinningFriction float32
}

// Filter is a broadphase collision filter: a (me, mask) pair tested
// with the groupA&maskB && groupB&maskA rule.
type Filter struct {
	Me   uint32
	Mask uint32
}

// PhysicsConfigResource is the read-only, shareable-across-worlds table
// of actor classes, materials and filters.
type PhysicsConfigResource struct {
	Id      uint64
	Classes map[uint32]ActorClass
	Mats    map[uint32]Material
	Filters map[uint32]Filter
}

// DefaultConfigId is the 64-bit hash of "global", the default physics
// config identifier.
var DefaultConfigId = StringId64("global")

// configYAML mirrors the on-disk yaml document shape. Named records are
// hashed into StringId32 keys at load time so runtime lookups never
// touch strings.
type configYAML struct {
	Name    string `yaml:"name"`
	Classes []struct {
		Name           string  `yaml:"name"`
		LinearDamping  float32 `yaml:"linear_damping"`
		AngularDamping float32 `yaml:"angular_damping"`
		Kinematic      bool    `yaml:"kinematic"`
		Dynamic        bool    `yaml:"dynamic"`
		Trigger        bool    `yaml:"trigger"`
	} `yaml:"classes"`
	Materials []struct {
		Name             string  `yaml:"name"`
		Restitution      float32 `yaml:"restitution"`
		Friction         float32 `yaml:"friction"`
		RollingFriction  float32 `yaml:"rolling_friction"`
		SpinningFriction float32 `yaml:"spinning_friction"`
	} `yaml:"materials"`
	Filters []struct {
		Name string `yaml:"name"`
		Me   uint32 `yaml:"me"`
		Mask uint32 `yaml:"mask"`
	} `yaml:"filters"`
}

// LoadConfig parses a yaml document (the on-disk form of a
// PhysicsConfigResource) into its runtime, hash-keyed representation.
func LoadConfig(data []byte) (*PhysicsConfigResource, error) {
	var doc configYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("physics: parse config: %w", err)
	}
	cfg := &PhysicsConfigResource{
		Id:      StringId64(doc.Name),
		Classes: make(map[uint32]ActorClass, len(doc.Classes)),
		Mats:    make(map[uint32]Material, len(doc.Materials)),
		Filters: make(map[uint32]Filter, len(doc.Filters)),
	}
	for _, c := range doc.Classes {
		var flags ActorClassFlags
		if c.Kinematic {
			flags |= ActorClassKinematic
		}
		if c.Dynamic {
			flags |= ActorClassDynamic
		}
		if c.Trigger {
			flags |= ActorClassTrigger
		}
		cfg.Classes[StringId32(c.Name)] = ActorClass{
			LinearDamping:  c.LinearDamping,
			AngularDamping: c.AngularDamping,
			Flags:          flags,
		}
	}
	for _, m := range doc.Materials {
		cfg.Mats[StringId32(m.Name)] = Material{
			Restitution:      m.Restitution,
			Friction:         m.Friction,
			RollingFriction:  m.RollingFriction,
			SpinningFriction: m.SpinningFriction,
		}
	}
	for _, f := range doc.Filters {
		cfg.Filters[StringId32(f.Name)] = Filter{Me: f.Me, Mask: f.Mask}
	}
	return cfg, nil
}

// NewDefaultConfig returns a minimal in-memory config resource with
// actor classes "default", "static" and "trigger", material "default"
// and filter "all", convenient for
// tests and callers that have not yet compiled a yaml config asset.
func NewDefaultConfig() *PhysicsConfigResource {
	return &PhysicsConfigResource{
		Id: DefaultConfigId,
		Classes: map[uint32]ActorClass{
			StringId32("default"): {LinearDamping: 0.01, AngularDamping: 0.01, Flags: ActorClassDynamic},
			StringId32("static"):  {Flags: 0},
			StringId32("trigger"): {Flags: ActorClassTrigger},
		},
		Mats: map[uint32]Material{
			StringId32("default"): {Friction: 0.5, Restitution: 0.0},
		},
		Filters: map[uint32]Filter{
			StringId32("all"): {Me: 0xFFFFFFFF, Mask: 0xFFFFFFFF},
		},
	}
}

// filterShouldCollide is the broadphase group/mask predicate: each
// side's group must appear in the other side's mask.
func filterShouldCollide(a, b Filter) bool {
	return a.Me&b.Mask != 0 && b.Me&a.Mask != 0
}
