// Package permission holds the permission catalog, the implication graph
// and the requirement resolution used to authorize command invocations.
package permission

import (
	"fmt"
	"sort"
)

// Well-known permission names used across the codebase.
const (
	Root            = "root"
	BypassCooldowns = "cmd:bypass_cooldowns"
)

// State is a permission's resolution outcome.
type State string

const (
	StateAllow State = "allow"
	StateDeny  State = "deny"
)

// Permission is one named capability with a default state that applies to
// users without an explicit override.
type Permission struct {
	ID           int32  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DefaultState State  `json:"default_state"`
}

// Spec describes a permission a command wants to exist, together with the
// names of permissions that imply it. Used by the idempotent bootstrap that
// runs on every boot.
type Spec struct {
	Name         string
	Description  string
	DefaultState State
	ImpliedBy    []string
}

// NotFoundError reports a permission name that was never registered. This
// is a command wiring mistake, not bad user input.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("permission %q does not exist", e.Name)
}

// Requirement is the AND-of-ORs normal form over permission ids: every
// outer group must have at least one member held. Immutable once built and
// safe to share.
type Requirement struct {
	Required [][]int32 `json:"required"`
}

// Check reports whether the held permission ids satisfy the requirement.
// An empty requirement is vacuously satisfied.
func (r Requirement) Check(held []int32) bool {
	for _, anyOf := range r.Required {
		ok := false
		for _, id := range anyOf {
			for _, h := range held {
				if h == id {
					ok = true
					break
				}
			}
			if ok {
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// CommandPermissionSet is the resolved, cacheable requirement for one
// command.
type CommandPermissionSet struct {
	CommandID   int32       `json:"command_id"`
	Requirement Requirement `json:"requirement"`
}

func sortGroup(ids []int32) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
