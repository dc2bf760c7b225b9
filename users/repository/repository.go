package repository

import (
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/crud"
	"github.com/fieldcrew/api/users/models"
)

type Repository = crud.Repository[models.Member]

func NewRepository(store *tenant.Store) Repository {
	return crud.NewRepository(tenant.NewTable[models.Member](store, models.Table, models.Columns...))
}
