package handler

import (
	"net/http"

	"readlater/internal/content"

	"go.uber.org/zap"
)

type TagHandler struct {
	Tags  *content.TagRegistry
	Links *content.Associations
	Log   *zap.Logger
}

type tagNameReq struct {
	Name string `json:"name"`
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Tags.List(r.Context(), userID(r))
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// Create returns the existing tag when the name is already taken.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagNameReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	tag, err := h.Tags.GetOrCreate(r.Context(), userID(r), req.Name)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	tag, err := h.Tags.Get(r.Context(), userID(r), id)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	var req tagNameReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	tag, err := h.Tags.Rename(r.Context(), userID(r), id, req.Name)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	if err := h.Tags.Delete(r.Context(), userID(r), id); err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TagHandler) Items(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	items, err := h.Links.ItemsFor(r.Context(), userID(r), id)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
