package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"medease/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, name, email, phone, language,
	caretaker_name, caretaker_email, caretaker_phone,
	password_hash, created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	var ctName, ctEmail, ctPhone sql.NullString
	if u.Caretaker != nil {
		ctName = sql.NullString{String: u.Caretaker.Name, Valid: true}
		ctEmail = sql.NullString{String: u.Caretaker.Email, Valid: true}
		ctPhone = sql.NullString{String: u.Caretaker.Phone, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		u.ID,
		u.Name,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.Phone,
		u.Language,
		ctName,
		ctEmail,
		ctPhone,
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if pgCode(err) == codeUniqueViolation {
		return users.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) getOne(ctx context.Context, q string, arg string) (users.User, error) {
	var u users.User
	var ctName, ctEmail, ctPhone sql.NullString
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Language,
		&ctName,
		&ctEmail,
		&ctPhone,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}

	if ctName.Valid || ctEmail.Valid || ctPhone.Valid {
		u.Caretaker = &users.Caretaker{
			Name:  ctName.String,
			Email: ctEmail.String,
			Phone: ctPhone.String,
		}
	}
	return u, nil
}
