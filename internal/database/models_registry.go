package database

import "vacancyhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Country{},
		&models.Region{},
		&models.User{},
		&models.Client{},
		&models.Channel{},
		&models.JobVacancy{},
		&models.Internship{},
		&models.OneTimeTask{},
		&models.OpportunitiesGrant{},
	}
}
