// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package classroom

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

const classroomColumns = `id, schoolid, name, gradelevel, capacity, resources, homeroomteacher, status, version, createdat, updatedat`

func scanClassroom(row pgx.Row) (*Classroom, error) {
	classroom := &Classroom{}
	err := row.Scan(
		&classroom.ID,
		&classroom.SchoolID,
		&classroom.Name,
		&classroom.GradeLevel,
		&classroom.Capacity,
		&classroom.Resources,
		&classroom.HomeroomTeacher,
		&classroom.Status,
		&classroom.Version,
		&classroom.CreatedAt,
		&classroom.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return classroom, nil
}

func (repository *PostgresRepository) List(context context.Context, filter Filter, params pagination.Params) ([]*Classroom, error) {
	query := `
		SELECT ` + classroomColumns + `
		FROM core.classroom
		WHERE 1=1`

	args := []any{}

	if filter.Scope.SchoolID != "" {
		args = append(args, filter.Scope.SchoolID)
		query += ` AND schoolid = $` + itos(len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += ` AND name ILIKE $` + itos(len(args))
	}
	if filter.GradeLevel != "" {
		args = append(args, filter.GradeLevel)
		query += ` AND gradelevel = $` + itos(len(args))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		query += ` AND status = ANY($` + itos(len(args)) + `)`
	}

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
		return nil, dberr.Wrap(err, "list_classrooms")
	}
	defer rows.Close()

	var classrooms []*Classroom
	for rows.Next() {
		classroom, err := scanClassroom(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_classroom")
		}
		classrooms = append(classrooms, classroom)
	}

	return classrooms, rows.Err()
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Classroom, error) {
	query := `
		SELECT ` + classroomColumns + `
		FROM core.classroom
		WHERE id = $1`

	classroom, err := scanClassroom(repository.db.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Classroom").WithCode("CLASSROOM_NOT_FOUND")
		}
		return nil, fmt.Errorf("postgres_classroom_repo_find_failed: %w", err)
	}

	return classroom, nil
}

func (repository *PostgresRepository) Create(context context.Context, classroom *Classroom) error {
	const query = `
		INSERT INTO core.classroom (
			id, schoolid, name, gradelevel, capacity, resources, homeroomteacher, status, version, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	classroom.CreatedAt = now
	classroom.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		classroom.ID,
		classroom.SchoolID,
		classroom.Name,
		classroom.GradeLevel,
		classroom.Capacity,
		classroom.Resources,
		classroom.HomeroomTeacher,
		classroom.Status,
		classroom.Version,
		classroom.CreatedAt,
		classroom.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, "classroom_school_name_unique") {
			return apperr.Conflict("A classroom with this name already exists in the school").
				WithCode("CLASSROOM_NAME_EXISTS")
		}
		return fmt.Errorf("postgres_classroom_repo_create_failed: %w", err)
	}

	return nil
}

func (repository *PostgresRepository) Update(context context.Context, classroom *Classroom, readVersion int) error {
	const query = `
		UPDATE core.classroom
		SET name = $3, gradelevel = $4, capacity = $5, resources = $6,
		    homeroomteacher = $7, status = $8, version = $9, updatedat = $10
		WHERE id = $1 AND version = $2`

	classroom.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(context, query,
		classroom.ID,
		readVersion,
		classroom.Name,
		classroom.GradeLevel,
		classroom.Capacity,
		classroom.Resources,
		classroom.HomeroomTeacher,
		classroom.Status,
		classroom.Version,
		classroom.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, "classroom_school_name_unique") {
			return apperr.Conflict("A classroom with this name already exists in the school").
				WithCode("CLASSROOM_NAME_EXISTS")
		}
		return fmt.Errorf("postgres_classroom_repo_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.staleOrMissing(context, classroom.ID)
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM core.classroom WHERE id = $1`

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_classroom_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Classroom").WithCode("CLASSROOM_NOT_FOUND")
	}

	return nil
}

func (repository *PostgresRepository) CountBySchool(context context.Context, schoolID string) (int, error) {
	const query = `SELECT COUNT(*) FROM core.classroom WHERE schoolid = $1`

	var count int
	if err := repository.db.QueryRow(context, query, schoolID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_classroom_repo_count_failed: %w", err)
	}

	return count, nil
}

func (repository *PostgresRepository) staleOrMissing(context context.Context, id string) error {
	const query = `SELECT EXISTS (SELECT 1 FROM core.classroom WHERE id = $1)`

	var exists bool
	if err := repository.db.QueryRow(context, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("postgres_classroom_repo_exists_failed: %w", err)
	}
	if !exists {
		return apperr.NotFound("Classroom").WithCode("CLASSROOM_NOT_FOUND")
	}
	return apperr.StaleVersion("Classroom")
}

func itos(i int) string {
	return strconv.Itoa(i)
}
