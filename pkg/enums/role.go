package enums

import "fmt"

// Role represents a staff member's authorization scope.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleAccounting Role = "accounting"
)

var validRoles = []Role{
	RoleAdmin,
	RoleStaff,
	RoleAccounting,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Capability names an action a role may perform. The router and services consult
// the same table so route gating and service checks cannot drift apart.
type Capability string

const (
	CapManageUsers      Capability = "manage_users"
	CapManageCatalog    Capability = "manage_catalog"
	CapManagePromotions Capability = "manage_promotions"
	CapCreateOrders     Capability = "create_orders"
	CapDecideOrders     Capability = "decide_orders"
	CapReadAllOrders    Capability = "read_all_orders"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapManageUsers,
		CapManageCatalog,
		CapManagePromotions,
		CapDecideOrders,
		CapReadAllOrders,
	},
	RoleStaff: {
		CapCreateOrders,
	},
	RoleAccounting: {
		CapReadAllOrders,
	},
}

// Can reports whether the role holds the capability.
func (r Role) Can(capability Capability) bool {
	for _, held := range roleCapabilities[r] {
		if held == capability {
			return true
		}
	}
	return false
}

// RolesWith returns every role holding the capability.
func RolesWith(capability Capability) []Role {
	var roles []Role
	for _, role := range validRoles {
		if role.Can(capability) {
			roles = append(roles, role)
		}
	}
	return roles
}
