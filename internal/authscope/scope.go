// Package authscope restricts queries to rows the acting user may see.
// Owners see their own rows; admins see everything. Handlers build scoped
// queries through Scope instead of mutating filter maps ad hoc.
package authscope

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

type Actor struct {
	UserID snowflake.ID
	Role   Role
}

var ErrForbidden = errors.New("forbidden")

// Scope returns a gorm scope applying the actor's visibility to owner_id.
func Scope(actor Actor) func(db *gorm.DB) *gorm.DB {
	return ScopeColumn(actor, "owner_id")
}

// ScopeColumn is Scope with a custom owner column name.
func ScopeColumn(actor Actor, column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.Role == RoleAdmin {
			return db
		}
		return db.Where(column+" = ?", actor.UserID)
	}
}

// CanAccess reports whether the actor may touch a row owned by ownerID.
func (a Actor) CanAccess(ownerID snowflake.ID) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.UserID == ownerID
}
