// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package student

import (
	"context"

	"github.com/ndthang/skolar/pkg/pagination"
)

// Repository defines the persistence contract for students.
//
// Update is the single conditional write used for field updates and transfers
// alike: school, classroom, and version move together in one statement.
type Repository interface {
	List(context context.Context, filter Filter, params pagination.Params) ([]*Student, error)
	FindByID(context context.Context, id string) (*Student, error)
	Create(context context.Context, student *Student) error
	Update(context context.Context, student *Student, readVersion int) error
	Delete(context context.Context, id string) error
	CountBySchool(context context.Context, schoolID string) (int, error)
	CountByClassroom(context context.Context, classroomID string) (int, error)
}
