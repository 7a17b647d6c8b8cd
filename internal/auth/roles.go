package auth

type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleCashier  UserRole = "CASHIER"
	RoleCook     UserRole = "COOK"
	RoleWaiter   UserRole = "WAITER"
	RoleCustomer UserRole = "CUSTOMER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleCook, RoleWaiter, RoleCustomer:
		return true
	}
	return false
}

// Capabilities is the closed capability set each role maps to. Handlers check
// capabilities, never role names.
type Capabilities struct {
	CanManageCatalog      bool
	CanManageSupplies     bool
	CanBookForOthers      bool
	CanUpdateOrderStatus  bool
	CanViewAllOrders      bool
	CanSettleReservations bool
	CanViewReports        bool
}

var roleCapabilities = map[UserRole]Capabilities{
	RoleAdmin: {
		CanManageCatalog:      true,
		CanManageSupplies:     true,
		CanBookForOthers:      true,
		CanUpdateOrderStatus:  true,
		CanViewAllOrders:      true,
		CanSettleReservations: true,
		CanViewReports:        true,
	},
	RoleCashier: {
		CanManageCatalog:      true,
		CanBookForOthers:      true,
		CanUpdateOrderStatus:  true,
		CanViewAllOrders:      true,
		CanSettleReservations: true,
	},
	RoleCook: {
		CanUpdateOrderStatus: true,
		CanViewAllOrders:     true,
	},
	RoleWaiter: {
		CanBookForOthers: true,
		CanViewAllOrders: true,
	},
	RoleCustomer: {},
}

func (r UserRole) Can() Capabilities {
	return roleCapabilities[r]
}

// IsCustomer reports whether the role is a plain customer, which forces
// self-ownership on orders and reservations.
func (r UserRole) IsCustomer() bool {
	return r == RoleCustomer
}
