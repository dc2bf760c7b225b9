package repository

import (
	"github.com/fieldcrew/api/equipment/models"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/crud"
)

type Repository = crud.Repository[models.Equipment]

func NewRepository(store *tenant.Store) Repository {
	return crud.NewRepository(tenant.NewTable[models.Equipment](store, models.Table, models.Columns...))
}
