// Package rbac gates catalog operations on the acting principal's role.
// The catalog itself never inspects roles; the API layer consults an
// Authorizer before it touches the catalog.
package rbac

import "vigil/core"

// Operation classifies what a request does to a resource.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
)

// Permissions holds a role's rights over regular and system resources.
// A system resource is any item whose group segment is "system"; those
// carry engine-owned content and need stricter rights.
type Permissions struct {
	ReadAsset   bool
	WriteAsset  bool
	ReadSystem  bool
	WriteSystem bool
}

// Authorizer decides whether a role may perform an operation on a named
// resource.
type Authorizer interface {
	Allowed(role string, name core.Name, op Operation) bool
}

// StaticAuthorizer authorizes against a fixed role-to-permissions map.
type StaticAuthorizer struct {
	roles map[string]Permissions
}

// NewStaticAuthorizer builds an authorizer over the given role map.
func NewStaticAuthorizer(roles map[string]Permissions) *StaticAuthorizer {
	return &StaticAuthorizer{roles: roles}
}

// DefaultPolicy returns the built-in role map: admin does everything,
// analyst reads everything and writes regular assets, viewer only reads
// regular assets.
func DefaultPolicy() map[string]Permissions {
	return map[string]Permissions{
		"admin": {
			ReadAsset:   true,
			WriteAsset:  true,
			ReadSystem:  true,
			WriteSystem: true,
		},
		"analyst": {
			ReadAsset:  true,
			WriteAsset: true,
			ReadSystem: true,
		},
		"viewer": {
			ReadAsset: true,
		},
	}
}

// IsSystemResource reports whether the name addresses engine-owned
// content.
func IsSystemResource(name core.Name) bool {
	return name.NumParts() >= 2 && name.Part(1) == "system"
}

// Allowed implements Authorizer. Unknown roles have no rights.
func (a *StaticAuthorizer) Allowed(role string, name core.Name, op Operation) bool {
	perms, ok := a.roles[role]
	if !ok {
		return false
	}
	system := IsSystemResource(name)
	switch op {
	case OpRead:
		if system {
			return perms.ReadSystem
		}
		return perms.ReadAsset
	case OpWrite:
		if system {
			return perms.WriteSystem
		}
		return perms.WriteAsset
	default:
		return false
	}
}
