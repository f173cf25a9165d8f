// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package classroom

import (
	"context"

	"github.com/ndthang/skolar/pkg/pagination"
)

// Repository defines the persistence contract for classrooms.
type Repository interface {
	List(context context.Context, filter Filter, params pagination.Params) ([]*Classroom, error)
	FindByID(context context.Context, id string) (*Classroom, error)
	Create(context context.Context, classroom *Classroom) error
	Update(context context.Context, classroom *Classroom, readVersion int) error
	Delete(context context.Context, id string) error
	CountBySchool(context context.Context, schoolID string) (int, error)
}
