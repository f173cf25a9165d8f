// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package student

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

const studentColumns = `id, schoolid, COALESCE(classroomid, ''), firstname, lastname, admissionnumber,
	COALESCE(email, ''), COALESCE(dateofbirth, ''), profile, status, enrolledat, version, createdat, updatedat`

func scanStudent(row pgx.Row) (*Student, error) {
	student := &Student{}
	err := row.Scan(
		&student.ID,
		&student.SchoolID,
		&student.ClassroomID,
		&student.FirstName,
		&student.LastName,
		&student.AdmissionNumber,
		&student.Email,
		&student.DateOfBirth,
		&student.Profile,
		&student.Status,
		&student.EnrolledAt,
		&student.Version,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return student, nil
}

// mapUniqueViolation translates the student unique constraints into the stable
// conflict codes the API contract promises.
func mapUniqueViolation(err error) error {
	switch {
	case dberr.IsUniqueViolation(err, "student_school_admission_unique"):
		return apperr.Conflict("Admission number is already used in this school").
			WithCode("STUDENT_ADMISSION_EXISTS")
	case dberr.IsUniqueViolation(err, "student_email_unique"):
		return apperr.Conflict("A student with this email already exists").
			WithCode("STUDENT_EMAIL_EXISTS")
	}
	return nil
}

func (repository *PostgresRepository) List(context context.Context, filter Filter, params pagination.Params) ([]*Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM core.student
		WHERE 1=1`

	args := []any{}

	if filter.Scope.SchoolID != "" {
		args = append(args, filter.Scope.SchoolID)
		query += ` AND schoolid = $` + itos(len(args))
	}
	if filter.ClassroomID != "" {
		args = append(args, filter.ClassroomID)
		query += ` AND classroomid = $` + itos(len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += ` AND (firstname ILIKE $` + itos(len(args)) + ` OR lastname ILIKE $` + itos(len(args)) + `)`
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
		return nil, dberr.Wrap(err, "list_students")
	}
	defer rows.Close()

	var students []*Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_student")
		}
		students = append(students, student)
	}

	return students, rows.Err()
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM core.student
		WHERE id = $1`

	student, err := scanStudent(repository.db.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Student").WithCode("STUDENT_NOT_FOUND")
		}
		return nil, fmt.Errorf("postgres_student_repo_find_failed: %w", err)
	}

	return student, nil
}

func (repository *PostgresRepository) Create(context context.Context, student *Student) error {
	const query = `
		INSERT INTO core.student (
			id, schoolid, classroomid, firstname, lastname, admissionnumber, email,
			dateofbirth, profile, status, enrolledat, version, createdat, updatedat
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11, $12, $13, $14)`

	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now
	if student.Profile == nil {
		student.Profile = map[string]any{}
	}

	_, err := repository.db.Exec(context, query,
		student.ID,
		student.SchoolID,
		student.ClassroomID,
		student.FirstName,
		student.LastName,
		student.AdmissionNumber,
		student.Email,
		student.DateOfBirth,
		student.Profile,
		student.Status,
		student.EnrolledAt,
		student.Version,
		student.CreatedAt,
		student.UpdatedAt,
	)

	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("postgres_student_repo_create_failed: %w", err)
	}

	return nil
}

// Update commits every mutable column, including the school and classroom
// bindings, in one conditional statement. Transfers ride on the same write so
// the scope change and the version bump are atomic.
func (repository *PostgresRepository) Update(context context.Context, student *Student, readVersion int) error {
	const query = `
		UPDATE core.student
		SET schoolid = $3, classroomid = NULLIF($4, ''), firstname = $5, lastname = $6,
		    admissionnumber = $7, email = NULLIF($8, ''), dateofbirth = NULLIF($9, ''),
		    profile = $10, status = $11, version = $12, updatedat = $13
		WHERE id = $1 AND version = $2`

	student.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(context, query,
		student.ID,
		readVersion,
		student.SchoolID,
		student.ClassroomID,
		student.FirstName,
		student.LastName,
		student.AdmissionNumber,
		student.Email,
		student.DateOfBirth,
		student.Profile,
		student.Status,
		student.Version,
		student.UpdatedAt,
	)

	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("postgres_student_repo_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.staleOrMissing(context, student.ID)
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM core.student WHERE id = $1`

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_student_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Student").WithCode("STUDENT_NOT_FOUND")
	}

	return nil
}

func (repository *PostgresRepository) CountBySchool(context context.Context, schoolID string) (int, error) {
	const query = `SELECT COUNT(*) FROM core.student WHERE schoolid = $1`

	var count int
	if err := repository.db.QueryRow(context, query, schoolID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_student_repo_count_by_school_failed: %w", err)
	}

	return count, nil
}

func (repository *PostgresRepository) CountByClassroom(context context.Context, classroomID string) (int, error) {
	const query = `SELECT COUNT(*) FROM core.student WHERE classroomid = $1`

	var count int
	if err := repository.db.QueryRow(context, query, classroomID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_student_repo_count_by_classroom_failed: %w", err)
	}

	return count, nil
}

func (repository *PostgresRepository) staleOrMissing(context context.Context, id string) error {
	const query = `SELECT EXISTS (SELECT 1 FROM core.student WHERE id = $1)`

	var exists bool
	if err := repository.db.QueryRow(context, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("postgres_student_repo_exists_failed: %w", err)
	}
	if !exists {
		return apperr.NotFound("Student").WithCode("STUDENT_NOT_FOUND")
	}
	return apperr.StaleVersion("Student")
}

func itos(i int) string {
	return strconv.Itoa(i)
}
