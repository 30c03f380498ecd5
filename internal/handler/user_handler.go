package handler

import (
	"fmt"
	"net/http"

	"technotes-api/internal/model"
	"technotes-api/internal/service"
)

type UserHandler struct {
	service *service.UserService
	sink    eventSink
}

func NewUserHandler(service *service.UserService, sink eventSink) *UserHandler {
	return &UserHandler{service: service, sink: sink}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	cred, err := credential(r)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	var payload model.CreateUserRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	user, err := h.service.Create(r.Context(), cred, payload)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.UserResponse{
		Message: fmt.Sprintf("New user %s created", user.Username),
		User:    user.Public(),
	})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	cred, err := credential(r)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	var payload model.UpdateUserRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	user, err := h.service.Update(r.Context(), cred, payload)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	writeJSON(w, http.StatusOK, model.UserResponse{
		Message: fmt.Sprintf("%s updated", user.Username),
		User:    user.Public(),
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cred, err := credential(r)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	var payload model.DeleteRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	user, err := h.service.Delete(r.Context(), cred, payload.ID)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Username %s with ID %s deleted", user.Username, user.ID),
	})
}
