package repository

import (
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/crud"
	"github.com/fieldcrew/api/tasks/models"
)

type Repository = crud.Repository[models.Task]

func NewRepository(store *tenant.Store) Repository {
	return crud.NewRepository(tenant.NewTable[models.Task](store, models.Table, models.Columns...))
}
