// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package classroom

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndthang/skolar/internal/platform/middleware"
	requestutil "github.com/ndthang/skolar/internal/platform/request"
	"github.com/ndthang/skolar/internal/platform/respond"
	"github.com/ndthang/skolar/internal/platform/validate"
	"github.com/ndthang/skolar/pkg/pagination"
	"github.com/ndthang/skolar/pkg/query"
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

	return router
}

type createRequest struct {
	SchoolID        string   `json:"school_id"`
	Name            string   `json:"name"`
	GradeLevel      string   `json:"grade_level"`
	Capacity        int      `json:"capacity"`
	Resources       []string `json:"resources"`
	HomeroomTeacher string   `json:"homeroom_teacher"`
}

type updateRequest struct {
	Name            *string   `json:"name"`
	GradeLevel      *string   `json:"grade_level"`
	Capacity        *int      `json:"capacity"`
	Resources       *[]string `json:"resources"`
	HomeroomTeacher *string   `json:"homeroom_teacher"`
	Status          *string   `json:"status"`
	ExpectedVersion *int      `json:"expected_version"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params, err := pagination.Parse(request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		Query:      request.URL.Query().Get("q"),
		GradeLevel: request.URL.Query().Get("grade_level"),
		Statuses:   query.StringSlice(request.URL.Query().Get("status")),
	}

	classrooms, meta, err := handler.service.List(
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

	respond.Paginated(writer, classrooms, meta)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	classroom, err := handler.service.Create(request.Context(), requestutil.Claims(request), CreateInput{
		SchoolID:        input.SchoolID,
		Name:            input.Name,
		GradeLevel:      input.GradeLevel,
		Capacity:        input.Capacity,
		Resources:       input.Resources,
		HomeroomTeacher: input.HomeroomTeacher,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, classroom)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	classroom, err := handler.service.Get(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, classroom)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	classroom, err := handler.service.Update(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"), UpdateInput{
		Name:            input.Name,
		GradeLevel:      input.GradeLevel,
		Capacity:        input.Capacity,
		Resources:       input.Resources,
		HomeroomTeacher: input.HomeroomTeacher,
		Status:          input.Status,
		ExpectedVersion: input.ExpectedVersion,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, classroom)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
