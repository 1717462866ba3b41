package domain

import (
	"bytes"
	"encoding/json"
)

// Role is the enumerated role carried by an Identity.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Identity models the logged-in principal as returned by the backend.
type Identity struct {
	ID          int64      `json:"id"          bson:"id"          validate:"required,gt=0"`
	Username    string     `json:"username"    bson:"username"    validate:"required"`
	Email       string     `json:"email"       bson:"email"`
	Role        Role       `json:"role"        bson:"role"        validate:"required,oneof=Admin User"`
	Designation string     `json:"designation" bson:"designation"`
	EmployeeID  EmployeeID `json:"employee_id" bson:"employee_id"`
}

// IsAdmin reports whether the identity carries the Admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IdentityPatch holds the profile fields a user may change about themselves.
// Role and id are not part of it.
type IdentityPatch struct {
	Username    string `json:"username"    validate:"required"`
	Email       string `json:"email"       validate:"omitempty,email"`
	Designation string `json:"designation"`
}

// NewUser is what an admin submits to create an account. The backend always
// assigns the User role.
type NewUser struct {
	Username    string     `json:"username"    validate:"required"`
	Password    string     `json:"password"    validate:"required"`
	Email       string     `json:"email"       validate:"omitempty,email"`
	Designation string     `json:"designation"`
	EmployeeID  EmployeeID `json:"employee_id" validate:"required"`
}

// ManagedUser is a user as listed on the user-manager screen.
type ManagedUser struct {
	Identity
	Tabs []string `json:"privileges"`
}

// EmployeeID accepts both JSON strings and numbers; the backend column type
// differs between deployments.
type EmployeeID string

func (e *EmployeeID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = EmployeeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*e = EmployeeID(n.String())
	return nil
}
