package repository

import (
	"database/sql"
	"errors"

	"github.com/heymemory/server/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFaceNotFound = errors.New("face not found")
)

type FaceRepository interface {
	Create(face *model.Face) error
	ByID(id string) (*model.Face, error)
	ByUser(userID string) ([]*model.Face, error)
	Update(face *model.Face) error
	Delete(id string) error
}

type faceRepository struct {
	db *sqlx.DB
}

func NewFaceRepository(db *sqlx.DB) FaceRepository {
	return &faceRepository{db: db}
}

func (r *faceRepository) Create(face *model.Face) error {
	query := `INSERT INTO faces (id, user_id, person_name, relationship, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		face.ID, face.UserID, face.PersonName, face.Relationship, face.Notes,
		face.CreatedAt, face.UpdatedAt,
	)
	return err
}

func (r *faceRepository) ByID(id string) (*model.Face, error) {
	face := &model.Face{}
	query := `SELECT * FROM faces WHERE id = $1`

	err := r.db.Get(face, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFaceNotFound
	}

	return face, err
}

func (r *faceRepository) ByUser(userID string) ([]*model.Face, error) {
	var faces []*model.Face
	query := `SELECT * FROM faces WHERE user_id = $1 ORDER BY person_name`

	err := r.db.Select(&faces, query, userID)
	if err != nil {
		return nil, err
	}

	return faces, nil
}

func (r *faceRepository) Update(face *model.Face) error {
	query := `UPDATE faces SET person_name = $1, relationship = $2, notes = $3, updated_at = $4 WHERE id = $5`

	_, err := r.db.Exec(query, face.PersonName, face.Relationship, face.Notes, face.UpdatedAt, face.ID)
	return err
}

func (r *faceRepository) Delete(id string) error {
	query := `DELETE FROM faces WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrFaceNotFound
	}

	return nil
}
