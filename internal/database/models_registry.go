package database

import "veridoc/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Company{},
		&models.User{},
		&models.EntityType{},
		&models.Entity{},
		&models.Document{},
		&models.ValidationFlow{},
		&models.ValidationStep{},
		&models.ValidationAction{},
	}
}
