// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package student

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndthang/skolar/internal/platform/middleware"
	requestutil "github.com/ndthang/skolar/internal/platform/request"
	"github.com/ndthang/skolar/internal/platform/respond"
	"github.com/ndthang/skolar/internal/platform/validate"
	"github.com/ndthang/skolar/pkg/pagination"
	"github.com/ndthang/skolar/pkg/query"
	"github.com/ndthang/skolar/pkg/slice"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
	router.Post("/{id}/transfer", handler.transfer)

	return router
}

type createRequest struct {
	SchoolID        string         `json:"school_id"`
	ClassroomID     string         `json:"classroom_id"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	AdmissionNumber string         `json:"admission_number"`
	Email           string         `json:"email"`
	DateOfBirth     string         `json:"date_of_birth"`
	Profile         map[string]any `json:"profile"`
}

type updateRequest struct {
	FirstName       *string         `json:"first_name"`
	LastName        *string         `json:"last_name"`
	AdmissionNumber *string         `json:"admission_number"`
	Email           *string         `json:"email"`
	DateOfBirth     *string         `json:"date_of_birth"`
	ClassroomID     *string         `json:"classroom_id"`
	Profile         *map[string]any `json:"profile"`
	Status          *string         `json:"status"`
	ExpectedVersion *int            `json:"expected_version"`
}

type transferRequest struct {
	TargetSchoolID    string `json:"target_school_id"`
	TargetClassroomID string `json:"target_classroom_id"`
	ExpectedVersion   *int   `json:"expected_version"`
}

// studentResponse is the wire shape of a student. FullName is derived for
// list views so clients don't re-implement the concatenation.
type studentResponse struct {
	*Student
	FullName string `json:"full_name"`
}

func toResponse(student *Student) studentResponse {
	return studentResponse{
		Student:  student,
		FullName: student.FirstName + " " + student.LastName,
	}
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params, err := pagination.Parse(request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		ClassroomID: request.URL.Query().Get("classroom_id"),
		Query:       request.URL.Query().Get("q"),
		Statuses:    query.StringSlice(request.URL.Query().Get("status")),
	}

	students, meta, err := handler.service.List(
		request.Context(),
		requestutil.Claims(request),
		request.URL.Query().Get("school_id"),
		filter,
		params,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, slice.Map(students, toResponse), meta)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	student, err := handler.service.Create(request.Context(), requestutil.Claims(request), CreateInput{
		SchoolID:        input.SchoolID,
		ClassroomID:     input.ClassroomID,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		AdmissionNumber: input.AdmissionNumber,
		Email:           input.Email,
		DateOfBirth:     input.DateOfBirth,
		Profile:         input.Profile,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, toResponse(student))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	student, err := handler.service.Get(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toResponse(student))
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	student, err := handler.service.Update(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"), UpdateInput{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		AdmissionNumber: input.AdmissionNumber,
		Email:           input.Email,
		DateOfBirth:     input.DateOfBirth,
		ClassroomID:     input.ClassroomID,
		Profile:         input.Profile,
		Status:          input.Status,
		ExpectedVersion: input.ExpectedVersion,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toResponse(student))
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) transfer(writer http.ResponseWriter, request *http.Request) {
	var input transferRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	student, err := handler.service.Transfer(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"), TransferInput{
		TargetSchoolID:    input.TargetSchoolID,
		TargetClassroomID: input.TargetClassroomID,
		ExpectedVersion:   input.ExpectedVersion,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toResponse(student))
}
