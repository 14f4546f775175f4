package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

const userColumns = `id, name, email, password_hash, role, profile_picture, created_at, updated_at`

// Users implements identity.Store.
type Users struct {
	db *sql.DB
}

func (r *Users) Create(ctx context.Context, u model.User) (model.User, error) {
	const op = "sqlstore.Users.Create"

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.ProfilePicture, u.CreatedAt, u.UpdatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	if err != nil {
		return model.User{}, apperr.Store(op, err)
	}
	return u, nil
}

func (r *Users) ByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return r.one(row, "sqlstore.Users.ByEmail")
}

func (r *Users) ByID(ctx context.Context, id string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.one(row, "sqlstore.Users.ByID")
}

func (r *Users) Update(ctx context.Context, u model.User) (model.User, error) {
	const op = "sqlstore.Users.Update"

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, profile_picture = $4, updated_at = $5
		WHERE id = $6
	`, u.Name, u.Email, u.PasswordHash, u.ProfilePicture, u.UpdatedAt, u.ID)
	if isUniqueViolation(err) {
		return model.User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	if err := affectedOne(res, err, op); err != nil {
		return model.User{}, err
	}
	return r.ByID(ctx, u.ID)
}

func (r *Users) List(ctx context.Context) ([]model.User, error) {
	const op = "sqlstore.Users.List"

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Store(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return users, nil
}

func (r *Users) one(row *sql.Row, op string) (model.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	if err != nil {
		return model.User{}, apperr.Store(op, err)
	}
	return u, nil
}

func scanUser(s scanner) (model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
