package repository

import (
	"database/sql"
	"errors"

	"github.com/heymemory/server/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrRememberItemNotFound = errors.New("remember item not found")
)

type RememberItemRepository interface {
	Create(item *model.RememberItem) error
	ByID(id string) (*model.RememberItem, error)
	ByUser(userID string) ([]*model.RememberItem, error)
	Update(item *model.RememberItem) error
	Delete(id string) error
}

type rememberItemRepository struct {
	db *sqlx.DB
}

func NewRememberItemRepository(db *sqlx.DB) RememberItemRepository {
	return &rememberItemRepository{db: db}
}

func (r *rememberItemRepository) Create(item *model.RememberItem) error {
	query := `INSERT INTO remember_items (id, user_id, title, content, pinned, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		item.ID, item.UserID, item.Title, item.Content, item.Pinned,
		item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *rememberItemRepository) ByID(id string) (*model.RememberItem, error) {
	item := &model.RememberItem{}
	query := `SELECT * FROM remember_items WHERE id = $1`

	err := r.db.Get(item, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrRememberItemNotFound
	}

	return item, err
}

// ByUser lists a user's items, pinned first, then most recently updated.
func (r *rememberItemRepository) ByUser(userID string) ([]*model.RememberItem, error) {
	var items []*model.RememberItem
	query := `SELECT * FROM remember_items WHERE user_id = $1 ORDER BY pinned DESC, updated_at DESC`

	err := r.db.Select(&items, query, userID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *rememberItemRepository) Update(item *model.RememberItem) error {
	query := `UPDATE remember_items SET title = $1, content = $2, pinned = $3, updated_at = $4 WHERE id = $5`

	_, err := r.db.Exec(query, item.Title, item.Content, item.Pinned, item.UpdatedAt, item.ID)
	return err
}

func (r *rememberItemRepository) Delete(id string) error {
	query := `DELETE FROM remember_items WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRememberItemNotFound
	}

	return nil
}
