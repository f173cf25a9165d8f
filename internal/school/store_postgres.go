// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package school

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/dberr"
	"github.com/ndthang/skolar/pkg/pagination"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const schoolColumns = `id, name, COALESCE(code, ''), address, contactemail, contactphone, profile, status, version, createdat, updatedat`

func scanSchool(row pgx.Row) (*School, error) {
	school := &School{}
	err := row.Scan(
		&school.ID,
		&school.Name,
		&school.Code,
		&school.Address,
		&school.ContactEmail,
		&school.ContactPhone,
		&school.Profile,
		&school.Status,
		&school.Version,
		&school.CreatedAt,
		&school.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return school, nil
}

func (repository *PostgresRepository) List(context context.Context, filter Filter, params pagination.Params) ([]*School, error) {
	query := `
		SELECT ` + schoolColumns + `
		FROM core.school
		WHERE 1=1`

	args := []any{}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += ` AND name ILIKE $` + itos(len(args))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		query += ` AND status = ANY($` + itos(len(args)) + `)`
	}

	// Cursor wins over offset: the strict (createdat, id) tie-break keeps the
	// descending order total even when timestamps collide.
	offset := params.Offset
	if params.Cursor != nil {
		args = append(args, params.Cursor.CreatedAt)
		timestampArg := itos(len(args))
		args = append(args, params.Cursor.ID)
		idArg := itos(len(args))
		query += ` AND (createdat < $` + timestampArg + ` OR (createdat = $` + timestampArg + ` AND id < $` + idArg + `))`
		offset = 0
	}

	args = append(args, params.Limit)
	query += ` ORDER BY createdat DESC, id DESC LIMIT $` + itos(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + itos(len(args))

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_schools")
	}
	defer rows.Close()

	var schools []*School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_school")
		}
		schools = append(schools, school)
	}

	return schools, rows.Err()
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*School, error) {
	query := `
		SELECT ` + schoolColumns + `
		FROM core.school
		WHERE id = $1`

	school, err := scanSchool(repository.db.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
		}
		return nil, fmt.Errorf("postgres_school_repo_find_failed: %w", err)
	}

	return school, nil
}

func (repository *PostgresRepository) ExistsByID(context context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM core.school WHERE id = $1)`

	var exists bool
	if err := repository.db.QueryRow(context, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_school_repo_exists_failed: %w", err)
	}

	return exists, nil
}

func (repository *PostgresRepository) Create(context context.Context, school *School) error {
	const query = `
		INSERT INTO core.school (
			id, name, code, address, contactemail, contactphone, profile, status, version, createdat, updatedat
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	school.CreatedAt = now
	school.UpdatedAt = now
	if school.Profile == nil {
		school.Profile = map[string]any{}
	}

	_, err := repository.db.Exec(context, query,
		school.ID,
		school.Name,
		school.Code,
		school.Address,
		school.ContactEmail,
		school.ContactPhone,
		school.Profile,
		school.Status,
		school.Version,
		school.CreatedAt,
		school.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, "school_code_unique") {
			return apperr.Conflict("School code is already in use").WithCode("SCHOOL_CODE_EXISTS")
		}
		return fmt.Errorf("postgres_school_repo_create_failed: %w", err)
	}

	return nil
}

// Update performs the conditional commit of the optimistic concurrency
// protocol: the row is only written when its version still equals the version
// the service read. Zero rows on an existing school means a concurrent writer
// won the race.
func (repository *PostgresRepository) Update(context context.Context, school *School, readVersion int) error {
	const query = `
		UPDATE core.school
		SET name = $3, code = NULLIF($4, ''), address = $5, contactemail = $6,
		    contactphone = $7, status = $8, version = $9, updatedat = $10
		WHERE id = $1 AND version = $2`

	school.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(context, query,
		school.ID,
		readVersion,
		school.Name,
		school.Code,
		school.Address,
		school.ContactEmail,
		school.ContactPhone,
		school.Status,
		school.Version,
		school.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, "school_code_unique") {
			return apperr.Conflict("School code is already in use").WithCode("SCHOOL_CODE_EXISTS")
		}
		return fmt.Errorf("postgres_school_repo_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.staleOrMissing(context, school.ID)
	}

	return nil
}

func (repository *PostgresRepository) UpdateProfile(context context.Context, school *School, readVersion int) error {
	const query = `
		UPDATE core.school
		SET profile = $3, version = $4, updatedat = $5
		WHERE id = $1 AND version = $2`

	school.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(context, query,
		school.ID,
		readVersion,
		school.Profile,
		school.Version,
		school.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_school_repo_update_profile_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.staleOrMissing(context, school.ID)
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM core.school WHERE id = $1`

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_school_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}

	return nil
}

// staleOrMissing disambiguates a zero-row conditional write: the school either
// vanished or its version moved on under us.
func (repository *PostgresRepository) staleOrMissing(context context.Context, id string) error {
	exists, err := repository.ExistsByID(context, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}
	return apperr.StaleVersion("School")
}

func itos(i int) string {
	return strconv.Itoa(i)
}
