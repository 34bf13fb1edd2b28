package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"readlater/internal/content"
	apperrors "readlater/internal/errors"

	"go.uber.org/zap"
)

type ItemHandler struct {
	Items  *content.ItemStore
	Links  *content.Associations
	Ingest *content.Ingest
	Query  *content.Query
	Log    *zap.Logger
}

type createItemReq struct {
	Source           string   `json:"source"`
	Content          string   `json:"content"`
	MessageID        *int64   `json:"message_id"`
	ChatID           *int64   `json:"chat_id"`
	ContentType      *string  `json:"content_type"`
	ShortDescription string   `json:"short_description"`
	Tags             []string `json:"tags"`
}

type itemDTO struct {
	content.ContentItem
	Tags []content.Tag `json:"tags,omitempty"`
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	item, tags, err := h.Ingest.Save(r.Context(), content.CreateItemInput{
		UserID:           userID(r),
		Source:           req.Source,
		Content:          req.Content,
		MessageID:        req.MessageID,
		ChatID:           req.ChatID,
		ContentType:      req.ContentType,
		ShortDescription: req.ShortDescription,
	}, req.Tags...)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemDTO{ContentItem: *item, Tags: tags})
}

type listResponse struct {
	Items  []content.ContentItem `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseListQuery(r)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	page, err = page.Normalize()
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	uid := userID(r)
	items, err := h.Query.List(r.Context(), uid, filter, page)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	total, err := h.Query.Count(r.Context(), uid, filter)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items:  items,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func parseListQuery(r *http.Request) (content.Filter, content.Page, error) {
	q := r.URL.Query()
	var (
		f       content.Filter
		p       content.Page
		details = map[string]string{}
	)

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		s := content.Status(strings.ToLower(v))
		f.Status = &s
	}
	if v := strings.TrimSpace(q.Get("content_type")); v != "" {
		f.ContentType = &v
	}
	for _, raw := range q["tag_id"] {
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil || id == 0 {
				details["tag_id"] = "must be a list of positive integers"
				continue
			}
			f.TagIDs = append(f.TagIDs, id)
		}
	}
	if v := strings.TrimSpace(q.Get("tag_match")); v != "" {
		f.TagMatch = content.TagMatch(strings.ToLower(v))
	}
	for key, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				details[key] = "must be an RFC3339 timestamp"
				continue
			}
			*dst = &t
		}
	}
	for key, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				details[key] = "must be an integer"
				continue
			}
			*dst = n
		}
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "", "desc":
	case "asc":
		p.Ascending = true
	default:
		details["order"] = "must be one of: asc desc"
	}

	if len(details) > 0 {
		return f, p, apperrors.ValidationWithDetails("invalid query", details)
	}
	return f, p, nil
}

// Last and Random accept the list filters; paging parameters are ignored.
func (h *ItemHandler) Last(w http.ResponseWriter, r *http.Request) {
	filter, _, err := parseListQuery(r)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	item, err := h.Query.Last(r.Context(), userID(r), filter)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Random(w http.ResponseWriter, r *http.Request) {
	filter, _, err := parseListQuery(r)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	item, err := h.Query.RandomUnread(r.Context(), userID(r), filter)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Query.Stats(r.Context(), userID(r))
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	uid := userID(r)
	item, err := h.Items.Get(r.Context(), uid, id)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	tags, err := h.Links.TagsFor(r.Context(), uid, id)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, itemDTO{ContentItem: *item, Tags: tags})
}

func (h *ItemHandler) MarkProcessed(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	item, err := h.Items.MarkProcessed(r.Context(), userID(r), id)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	if err := h.Items.Delete(r.Context(), userID(r), id); err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) Tags(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	tags, err := h.Links.TagsFor(r.Context(), userID(r), id)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *ItemHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, h.Links.Attach)
}

func (h *ItemHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, h.Links.Detach)
}

func (h *ItemHandler) link(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID int64, itemID, tagID uint64) error) {
	itemID, err := idParam(r, "id")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	tagID, err := idParam(r, "tagID")
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}

	if err := op(r.Context(), userID(r), itemID, tagID); err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
