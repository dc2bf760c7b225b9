package repository

import (
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/projects/models"
	"github.com/fieldcrew/api/shared/crud"
)

type Repository = crud.Repository[models.Project]

func NewRepository(store *tenant.Store) Repository {
	return crud.NewRepository(tenant.NewTable[models.Project](store, models.Table, models.Columns...))
}
