package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleBuyer, PermMarkPaid, true},
		{RoleBuyer, PermCancelTrade, true},
		{RoleBuyer, PermReleaseCrypto, false},
		{RoleBuyer, PermResolveDispute, false},
		{RoleSeller, PermReleaseCrypto, true},
		{RoleSeller, PermMarkPaid, false},
		{RoleSeller, PermOpenDispute, true},
		{RoleAdmin, PermResolveDispute, true},
		{RoleAdmin, PermReleaseCrypto, false},
		{"", PermMarkPaid, false},
		{"observer", PermPostMessage, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.permission); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.want)
		}
	}
}

func TestIsTerminalCausing(t *testing.T) {
	for _, p := range []string{PermReleaseCrypto, PermCancelTrade, PermResolveDispute} {
		if !IsTerminalCausing(p) {
			t.Errorf("IsTerminalCausing(%q) = false", p)
		}
	}
	for _, p := range []string{PermMarkPaid, PermOpenDispute, PermPostMessage, PermAddEvidence} {
		if IsTerminalCausing(p) {
			t.Errorf("IsTerminalCausing(%q) = true", p)
		}
	}
}
