package rbac

// Role constants. Buyer/seller are per-trade roles derived from the trade
// row, never taken from the request.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Permission constants
const (
	PermMarkPaid       = "mark_paid"
	PermReleaseCrypto  = "release_crypto"
	PermCancelTrade    = "cancel_trade"
	PermOpenDispute    = "open_dispute"
	PermResolveDispute = "resolve_dispute"
	PermPostMessage    = "post_message"
	PermAddEvidence    = "add_evidence"
)

// RolePermissions defines what each per-trade role can do.
var RolePermissions = map[string][]string{
	RoleBuyer: {
		PermMarkPaid, PermCancelTrade, PermOpenDispute, PermPostMessage, PermAddEvidence,
	},
	RoleSeller: {
		PermReleaseCrypto, PermOpenDispute, PermPostMessage, PermAddEvidence,
	},
	RoleAdmin: {
		// Resolution is the only admin-exclusive path; admins may also join
		// the chat once a dispute is open.
		PermResolveDispute, PermPostMessage,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsTerminalCausing reports whether the permission guards an action that can
// close a trade and move escrowed funds.
func IsTerminalCausing(permission string) bool {
	return permission == PermReleaseCrypto || permission == PermCancelTrade || permission == PermResolveDispute
}
