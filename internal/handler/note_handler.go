package handler

import (
	"fmt"
	"net/http"

	"technotes-api/internal/model"
	"technotes-api/internal/service"
)

type NoteHandler struct {
	service *service.NoteService
	sink    eventSink
}

func NewNoteHandler(service *service.NoteService, sink eventSink) *NoteHandler {
	return &NoteHandler{service: service, sink: sink}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	cred, err := credential(r)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	notes, err := h.service.List(r.Context(), cred)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	cred, err := credential(r)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	var payload model.CreateNoteRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	note, err := h.service.Create(r.Context(), cred, payload)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.NoteResponse{Message: "New note created", Note: note})
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	cred, err := credential(r)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	var payload model.UpdateNoteRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	note, err := h.service.Update(r.Context(), cred, payload)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NoteResponse{Message: fmt.Sprintf("'%s' updated", note.Title), Note: note})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	note, err := h.service.Delete(r.Context(), cred, payload.ID)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Note '%s' with ID %s deleted", note.Title, note.ID),
	})
}
