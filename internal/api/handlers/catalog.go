package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/service"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

type MovieListResponse struct {
	Items []domain.Movie `json:"items"`
}

type GenreListResponse struct {
	Items []domain.Genre `json:"items"`
}

func (h *CatalogHandler) Latest(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	writeJSON(w, http.StatusOK, MovieListResponse{Items: h.catalog.Latest(r.Context(), page, limit)})
}

func (h *CatalogHandler) Anime(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	writeJSON(w, http.StatusOK, MovieListResponse{Items: h.catalog.Anime(r.Context(), page, limit)})
}

func (h *CatalogHandler) Series(w http.ResponseWriter, r *http.Request) {
	filter := service.SeriesFilter{
		Page:    queryInt(r, "page", 1),
		Country: r.URL.Query().Get("country"),
		Year:    queryInt(r, "year", 0),
		Limit:   queryInt(r, "limit", 0),
	}
	writeJSON(w, http.StatusOK, MovieListResponse{Items: h.catalog.Series(r.Context(), filter)})
}

func (h *CatalogHandler) ByNation(w http.ResponseWriter, r *http.Request) {
	nation := chi.URLParam(r, "slug")
	limit := queryInt(r, "limit", 0)
	writeJSON(w, http.StatusOK, MovieListResponse{Items: h.catalog.ByNation(r.Context(), nation, limit)})
}

func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GenreListResponse{Items: h.catalog.Genres(r.Context())})
}

func (h *CatalogHandler) Movie(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.Movie(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, h.logger, "movie", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *CatalogHandler) Watch(w http.ResponseWriter, r *http.Request) {
	server := queryInt(r, "ss", 1)
	episode := queryInt(r, "ep", 1)

	result, err := h.catalog.Watch(r.Context(), chi.URLParam(r, "slug"), server, episode)
	if err != nil {
		writeServiceError(w, r, h.logger, "watch", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// queryInt reads an integer query parameter, falling back to def when it is
// absent or not a number.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
