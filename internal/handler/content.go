package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/sakif/geostream/internal/auth"
	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/service"
)

// ContentHandler exposes dataset, map, layer, and tag endpoints.
type ContentHandler struct {
	content *service.ContentService
	logger  *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(content *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: content, logger: logger}
}

// HandleCreateDataSet publishes a new dataset.
//
// HTTP: POST /api/datasets (multipart/form-data)
// Auth: required
//
// Form fields: title, format, description, and a "file" part carrying the
// data itself. The part's filename is recorded; the bytes go to the file
// store keyed by the dataset ID.
func (h *ContentHandler) HandleCreateDataSet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(service.MaxDataSetBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "a file part named \"file\" is required",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxDataSetBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "reading uploaded file failed",
		})
		return
	}

	ds, err := h.content.CreateDataSet(
		r.Context(),
		ownerID,
		r.FormValue("title"),
		r.FormValue("format"),
		header.Filename,
		r.FormValue("description"),
		data,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ds)
}

// HandleGetDataSet returns dataset metadata.
//
// HTTP: GET /api/datasets/{id}
func (h *ContentHandler) HandleGetDataSet(w http.ResponseWriter, r *http.Request) {
	ds, err := h.content.GetDataSet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// HandleDataSetData serves a dataset's raw content. Only JSON-family formats
// are served parsed; other formats get a 400.
//
// HTTP: GET /api/datasets/{id}/data
func (h *ContentHandler) HandleDataSetData(w http.ResponseWriter, r *http.Request) {
	data, err := h.content.RawData(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write dataset data", slog.String("error", err.Error()))
	}
}

// HandleDataSetReferences lists the maps that source dataset {id}.
//
// HTTP: GET /api/datasets/{id}/references
func (h *ContentHandler) HandleDataSetReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := h.content.DataSetReferences(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

type createLayerRequest struct {
	Type        string          `json:"type"`
	SourceLayer string          `json:"sourceLayer"`
	Layout      json.RawMessage `json:"layout"`
	Paint       json.RawMessage `json:"paint"`
	Popups      []model.Popup   `json:"popups"`
}

// HandleCreateLayer creates a render layer on dataset {id}. Only the
// dataset's owner may do this.
//
// HTTP: POST /api/datasets/{id}/layers
// Auth: required
func (h *ContentHandler) HandleCreateLayer(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req createLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	layer, err := h.content.CreateLayer(
		r.Context(),
		actorID,
		chi.URLParam(r, "id"),
		req.Type,
		req.SourceLayer,
		req.Layout,
		req.Paint,
		req.Popups,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, layer)
}

type createMapRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Style       string  `json:"style"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Zoom        float64 `json:"zoom"`
}

// HandleCreateMap publishes a new map.
//
// HTTP: POST /api/maps
// Auth: required
func (h *ContentHandler) HandleCreateMap(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req createMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	m, err := h.content.CreateMap(r.Context(), ownerID, req.Title, req.Description, req.Style, req.Lat, req.Lng, req.Zoom)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// HandleGetMap returns a map with its sources and layers hydrated.
//
// HTTP: GET /api/maps/{id}
func (h *ContentHandler) HandleGetMap(w http.ResponseWriter, r *http.Request) {
	m, err := h.content.GetMap(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type addSourceRequest struct {
	DataSetID string `json:"datasetId"`
}

// HandleAddMapSource attaches a dataset to map {id} as a source. Owner only;
// attaching the same dataset twice is a no-op.
//
// HTTP: POST /api/maps/{id}/sources
// Auth: required
func (h *ContentHandler) HandleAddMapSource(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req addSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	m, err := h.content.AddMapSource(r.Context(), actorID, chi.URLParam(r, "id"), req.DataSetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

type addLayerRequest struct {
	LayerID string `json:"layerId"`
}

// HandleAddMapLayer attaches an existing layer to map {id}. The layer's
// dataset must already be one of the map's sources.
//
// HTTP: POST /api/maps/{id}/layers
// Auth: required
func (h *ContentHandler) HandleAddMapLayer(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req addLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	m, err := h.content.AddMapLayer(r.Context(), actorID, chi.URLParam(r, "id"), req.LayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

type createTagRequest struct {
	Name string `json:"name"`
}

// HandleCreateTag creates a tag. Duplicate names come back as 409.
//
// HTTP: POST /api/tags
// Auth: required
func (h *ContentHandler) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	tag, err := h.content.CreateTag(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tag)
}

type tagResponse struct {
	Tag   *model.Tag          `json:"tag"`
	Posts []model.PostSummary `json:"posts"`
}

// HandleGetTag returns a tag together with the posts carrying it.
//
// HTTP: GET /api/tags/{id}
func (h *ContentHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, posts, err := h.content.GetTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tagResponse{Tag: tag, Posts: posts})
}

type tagPostRequest struct {
	Kind   string `json:"kind"`
	PostID string `json:"postId"`
}

// HandleTagPost applies tag {id} to a post and responds with the tagged
// post's summary. Tagging the same post twice is a no-op.
//
// HTTP: POST /api/tags/{id}/posts
// Auth: required
func (h *ContentHandler) HandleTagPost(w http.ResponseWriter, r *http.Request) {
	var req tagPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	summary, err := h.content.TagPost(r.Context(), chi.URLParam(r, "id"), req.Kind, req.PostID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
