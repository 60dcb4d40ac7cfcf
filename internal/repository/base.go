// Package repository provides data access layer implementations for the application.
package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockForUpdate applies a SELECT ... FOR UPDATE row lock on dialects that
// support it. sqlite serializes writers on its own, so the clause is skipped
// there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
