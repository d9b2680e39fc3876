package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"medease/internal/domain/medicines"
)

type MedicinesRepo struct {
	db *sql.DB
}

func NewMedicinesRepo(db *sql.DB) *MedicinesRepo {
	return &MedicinesRepo{db: db}
}

const medicineColumns = `
	id, owner_user_id,
	name, dosage, time, frequency,
	start_date, end_date, photo_url, last_taken,
	created_at, updated_at`

func (r *MedicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	if err := medicines.ValidateDateRange(m.StartDate, m.EndDate); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicines (`+medicineColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		m.ID,
		m.OwnerUserID,
		m.Name,
		m.Dosage,
		m.Time,
		string(m.Frequency),
		m.StartDate,
		toNullTime(m.EndDate),
		m.PhotoURL,
		toNullTime(m.LastTaken),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return mapMedicineErr(err)
}

func (r *MedicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	if err := medicines.ValidateDateRange(m.StartDate, m.EndDate); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE medicines
		SET
			name = $2,
			dosage = $3,
			time = $4,
			frequency = $5,
			start_date = $6,
			end_date = $7,
			photo_url = $8,
			last_taken = $9,
			updated_at = $10
		WHERE id = $1
	`,
		m.ID,
		m.Name,
		m.Dosage,
		m.Time,
		string(m.Frequency),
		m.StartDate,
		toNullTime(m.EndDate),
		m.PhotoURL,
		toNullTime(m.LastTaken),
		m.UpdatedAt,
	)
	if err != nil {
		return mapMedicineErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medicines.Medicine{}, medicines.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)
	m, err := scanMedicine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return m, err
}

func (r *MedicinesRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]medicines.Medicine, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE owner_user_id = $1
		ORDER BY created_at ASC, id ASC
	`, ownerUserID)
}

// FindByTime es la consulta del scheduler: match exacto sobre la columna time.
func (r *MedicinesRepo) FindByTime(ctx context.Context, hhmm string) ([]medicines.Medicine, error) {
	return r.query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE time = $1
		ORDER BY created_at ASC, id ASC
	`, hhmm)
}

func (r *MedicinesRepo) query(ctx context.Context, q string, args ...any) ([]medicines.Medicine, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medicines.Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedicine(s scanner) (medicines.Medicine, error) {
	var (
		m         medicines.Medicine
		freq      string
		end, last sql.NullTime
	)
	if err := s.Scan(
		&m.ID,
		&m.OwnerUserID,
		&m.Name,
		&m.Dosage,
		&m.Time,
		&freq,
		&m.StartDate,
		&end,
		&m.PhotoURL,
		&last,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medicines.Medicine{}, err
	}
	m.Frequency = medicines.Frequency(freq)
	m.EndDate = fromNullTime(end)
	m.LastTaken = fromNullTime(last)
	return m, nil
}

func mapMedicineErr(err error) error {
	if err == nil {
		return nil
	}
	if pgCode(err) == codeCheckViolation {
		return medicines.ErrInvalidDateRange
	}
	return err
}
