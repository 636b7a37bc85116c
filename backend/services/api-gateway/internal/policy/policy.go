package policy

import (
	"sort"
	"strings"
)

// Role is the caller role carried in the access token.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleOwner      Role = "owner"
	RoleEmployee   Role = "employee"
)

// ParseRole normalizes raw and reports whether it names a known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleSuperadmin, RoleOwner, RoleEmployee:
		return role, true
	}
	return "", false
}

// Capability names one guarded operation family.
type Capability string

const (
	ReadingsSubmit    Capability = "readings:submit"
	ReadingsRead      Capability = "readings:read"
	SalesRead         Capability = "sales:read"
	SalesFinalize     Capability = "sales:finalize"
	PricesWrite       Capability = "prices:write"
	PricesRead        Capability = "prices:read"
	StationsRead      Capability = "stations:read"
	StationsProvision Capability = "stations:provision"
)

// All lists every capability known to the gateway.
var All = []Capability{
	ReadingsSubmit,
	ReadingsRead,
	SalesRead,
	SalesFinalize,
	PricesWrite,
	PricesRead,
	StationsRead,
	StationsProvision,
}

// Policy decides which capabilities a role holds.
type Policy interface {
	Allows(role Role, capability Capability) bool
	Capabilities(role Role) []Capability
}

// RolePolicy is a static role to capability table.
type RolePolicy struct {
	grants map[Role]map[Capability]struct{}
}

// NewRolePolicy returns the default table.
func NewRolePolicy() *RolePolicy {
	return NewRolePolicyFrom(map[Role][]Capability{
		RoleSuperadmin: All,
		RoleOwner: {
			ReadingsSubmit, ReadingsRead,
			SalesRead, SalesFinalize,
			PricesWrite, PricesRead,
			StationsRead, StationsProvision,
		},
		RoleEmployee: {
			ReadingsSubmit, ReadingsRead,
			SalesRead,
			PricesRead,
			StationsRead,
		},
	})
}

// NewRolePolicyFrom builds a policy from an explicit table.
func NewRolePolicyFrom(table map[Role][]Capability) *RolePolicy {
	grants := make(map[Role]map[Capability]struct{}, len(table))
	for role, caps := range table {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		grants[role] = set
	}
	return &RolePolicy{grants: grants}
}

// Allows reports whether role holds capability.
func (p *RolePolicy) Allows(role Role, capability Capability) bool {
	_, ok := p.grants[role][capability]
	return ok
}

// Capabilities returns the role's capabilities in sorted order.
func (p *RolePolicy) Capabilities(role Role) []Capability {
	set := p.grants[role]
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
