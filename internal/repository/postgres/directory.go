package postgres

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// CreateUser inserts a user and assigns its id.
func (q *queries) CreateUser(ctx context.Context, u *model.User) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		u.Name, u.Email,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

// GetUser returns a user or repository.ErrNotFound.
func (q *queries) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := q.db.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// CreateCategory inserts a category and assigns its id.
func (q *queries) CreateCategory(ctx context.Context, c *model.Category) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", translate(err))
	}
	return nil
}

// GetCategory returns a category or repository.ErrNotFound.
func (q *queries) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	err := q.db.QueryRow(ctx,
		`SELECT id, name FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
