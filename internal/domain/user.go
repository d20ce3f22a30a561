package domain

import "strings"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string `db:"id" bson:"_id" json:"_id"`
	Email     string `db:"email" bson:"email" json:"email"`
	Name      string `db:"name" bson:"name" json:"name"`
	Role      Role   `db:"role" bson:"role" json:"role"`
	Verified  bool   `db:"verified" bson:"verified" json:"verified"`
	Hash      string `db:"password_hash" bson:"password_hash" json:"-"`
	CreatedAt string `db:"created_at" bson:"created_at" json:"createdAt,omitempty"`
}

// Caller is the verified identity a request acts as.
type Caller struct {
	Email string
	Role  Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Owns reports whether the caller may act on a resource owned by email.
func (c Caller) Owns(email string) bool {
	if c.IsAdmin() {
		return true
	}
	return c.Email != "" && strings.EqualFold(c.Email, email)
}
