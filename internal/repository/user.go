package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trainchat/transit-bot-go/internal/database"
	"github.com/trainchat/transit-bot-go/internal/model"
)

type UserRepository interface {
	Find(ctx context.Context, appID, userID string) (*model.User, error)
	Put(ctx context.Context, user *model.User) error
	PutAll(ctx context.Context, users []*model.User) error
}

type userRepo struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Find(ctx context.Context, appID, userID string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE app_id = $1 AND user_id = $2
	`, appID, userID)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Put(ctx context.Context, user *model.User) error {
	return putUser(ctx, r.db, user)
}

// PutAll persists the mutated users of one webhook delivery in a single
// transaction, so a mid-batch failure never leaves half the senders with
// stale conversation state.
func (r *userRepo) PutAll(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, u := range users {
			if err := putUser(ctx, tx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func putUser(ctx context.Context, q database.DBTX, user *model.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (app_id, user_id, session, profile, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (app_id, user_id) DO UPDATE SET
			session = EXCLUDED.session,
			profile = EXCLUDED.profile,
			data = EXCLUDED.data,
			updated_at = NOW()
	`, user.AppID, user.UserID, user.Session, user.Profile, user.Data)
	return err
}
