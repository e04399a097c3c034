package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trainchat/transit-bot-go/internal/model"
)

type AppRepository interface {
	Find(ctx context.Context, id string) (*model.App, error)
	FindActive(ctx context.Context) ([]model.App, error)
}

type appRepo struct {
	db *sqlx.DB
}

func NewAppRepository(db *sqlx.DB) AppRepository {
	return &appRepo{db: db}
}

func (r *appRepo) Find(ctx context.Context, id string) (*model.App, error) {
	var app model.App
	err := r.db.GetContext(ctx, &app, `
		SELECT * FROM applications WHERE id = $1
	`, id)
	return HandleNotFound(&app, err)
}

func (r *appRepo) FindActive(ctx context.Context) ([]model.App, error) {
	var apps []model.App
	err := r.db.SelectContext(ctx, &apps, `
		SELECT * FROM applications WHERE active ORDER BY id
	`)
	return apps, err
}
