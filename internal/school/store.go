// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package school

import (
	"context"

	"github.com/ndthang/skolar/pkg/pagination"
)

// Repository defines the persistence contract for schools.
//
// Update and UpdateProfile are conditional writes keyed on the version the
// caller read; a zero-row result on an existing school signals a lost race.
type Repository interface {
	List(context context.Context, filter Filter, params pagination.Params) ([]*School, error)
	FindByID(context context.Context, id string) (*School, error)
	ExistsByID(context context.Context, id string) (bool, error)
	Create(context context.Context, school *School) error
	Update(context context.Context, school *School, readVersion int) error
	UpdateProfile(context context.Context, school *School, readVersion int) error
	Delete(context context.Context, id string) error
}
