package domain

import "encoding/json"

// Roles recognised by the authorization layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// PermissionList tolerates both a JSON array and a bare string, since the auth
// service historically returned either shape.
type PermissionList []string

// UnmarshalJSON accepts `["admin"]` as well as `"admin"`.
func (p *PermissionList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}

	if single == "" {
		*p = nil
		return nil
	}

	*p = PermissionList{single}
	return nil
}

// Identity is the authenticated caller as resolved by the upstream auth
// service and cached between requests.
type Identity struct {
	ID          string         `json:"id"`
	Permissions PermissionList `json:"permissions"`
	Role        PermissionList `json:"role,omitempty"`
}

// HasPermission checks the permission set, falling back to the legacy role
// field when permissions are absent.
func (i Identity) HasPermission(name string) bool {
	perms := i.Permissions
	if len(perms) == 0 {
		perms = i.Role
	}

	for _, p := range perms {
		if p == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller holds the administrator role.
func (i Identity) IsAdmin() bool {
	return i.HasPermission(RoleAdmin)
}
