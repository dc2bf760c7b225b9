package repository

import (
	"github.com/fieldcrew/api/clients/models"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/crud"
)

// Repository persists clients under their business
type Repository = crud.Repository[models.Client]

func NewRepository(store *tenant.Store) Repository {
	return crud.NewRepository(tenant.NewTable[models.Client](store, models.Table, models.Columns...))
}
