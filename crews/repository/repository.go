package repository

import (
	"github.com/fieldcrew/api/crews/models"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/crud"
)

type Repository = crud.Repository[models.Crew]

func NewRepository(store *tenant.Store) Repository {
	return crud.NewRepository(tenant.NewTable[models.Crew](store, models.Table, models.Columns...))
}
