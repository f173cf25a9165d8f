// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package school

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

// Routes returns the school sub-router. Role enforcement lives in the service;
// the router only requires an authenticated caller.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
	router.Get("/{id}/profile", handler.getProfile)
	router.Put("/{id}/profile", handler.updateProfile)

	return router
}

type createRequest struct {
	Name         string         `json:"name"`
	Code         string         `json:"code"`
	Address      string         `json:"address"`
	ContactEmail string         `json:"contact_email"`
	ContactPhone string         `json:"contact_phone"`
	Profile      map[string]any `json:"profile"`
}

type updateRequest struct {
	Name            *string `json:"name"`
	Code            *string `json:"code"`
	Address         *string `json:"address"`
	ContactEmail    *string `json:"contact_email"`
	ContactPhone    *string `json:"contact_phone"`
	Status          *string `json:"status"`
	ExpectedVersion *int    `json:"expected_version"`
}

type profileRequest struct {
	Profile         map[string]any `json:"profile"`
	ExpectedVersion *int           `json:"expected_version"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params, err := pagination.Parse(request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		Query:    request.URL.Query().Get("q"),
		Statuses: query.StringSlice(request.URL.Query().Get("status")),
	}

	schools, meta, err := handler.service.List(request.Context(), requestutil.Claims(request), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, schools, meta)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	school, err := handler.service.Create(request.Context(), requestutil.Claims(request), CreateInput{
		Name:         input.Name,
		Code:         input.Code,
		Address:      input.Address,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		Profile:      input.Profile,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, school)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	school, err := handler.service.Get(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, school)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	school, err := handler.service.Update(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"), UpdateInput{
		Name:            input.Name,
		Code:            input.Code,
		Address:         input.Address,
		ContactEmail:    input.ContactEmail,
		ContactPhone:    input.ContactPhone,
		Status:          input.Status,
		ExpectedVersion: input.ExpectedVersion,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, school)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	profile, version, err := handler.service.GetProfile(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"profile": profile, "version": version})
}

func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	var input profileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	school, err := handler.service.UpdateProfile(request.Context(), requestutil.Claims(request), requestutil.ID(request, "id"), ProfileInput{
		Profile:         input.Profile,
		ExpectedVersion: input.ExpectedVersion,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, school)
}
