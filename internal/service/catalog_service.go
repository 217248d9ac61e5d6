package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dom/phim-stream/internal/domain"
)

const (
	defaultCatalogLimit = 20
	maxCatalogLimit     = 100
	maxCatalogBody      = 8 << 20
)

var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrEpisodeNotFound    = errors.New("episode not found")
	ErrCatalogUnavailable = errors.New("movie catalog unavailable")
)

// CatalogCache stores raw upstream responses. A miss is ok == false with a
// nil error.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CatalogService proxies the third-party movie API. List calls never fail:
// upstream problems are logged and produce an empty list.
type CatalogService struct {
	baseURL    string
	httpClient *http.Client
	cache      CatalogCache
	cacheTTL   time.Duration
	maxBody    int64
	logger     *slog.Logger
}

type CatalogOptions struct {
	BaseURL  string
	Timeout  time.Duration
	Cache    CatalogCache
	CacheTTL time.Duration
	Logger   *slog.Logger
	// MaxBodyBytes bounds an upstream response; zero means 8 MiB.
	MaxBodyBytes int64
}

func NewCatalogService(opts CatalogOptions) *CatalogService {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = maxCatalogBody
	}
	return &CatalogService{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		maxBody:  opts.MaxBodyBytes,
		logger:   opts.Logger,
	}
}

type movieListResponse struct {
	Items []domain.Movie `json:"items"`
	Data  struct {
		Items []domain.Movie `json:"items"`
	} `json:"data"`
}

type movieDetailResponse struct {
	Movie    domain.MovieInfo `json:"movie"`
	Episodes []domain.Server  `json:"episodes"`
}

// Latest returns recently updated movies.
func (s *CatalogService) Latest(ctx context.Context, page, limit int) []domain.Movie {
	path := fmt.Sprintf("/danh-sach/phim-moi-cap-nhat?page=%d", normalizePage(page))
	return s.list(ctx, "latest", path, limit)
}

// Anime returns the animation listing.
func (s *CatalogService) Anime(ctx context.Context, page, limit int) []domain.Movie {
	path := fmt.Sprintf("/v1/api/danh-sach/hoat-hinh?page=%d", normalizePage(page))
	return s.list(ctx, "anime", path, limit)
}

// SeriesFilter narrows the series listing. Empty fields are not sent.
type SeriesFilter struct {
	Page    int
	Country string
	Year    int
	Limit   int
}

// Series returns multi-episode shows, oldest first.
func (s *CatalogService) Series(ctx context.Context, f SeriesFilter) []domain.Movie {
	limit := normalizeLimit(f.Limit)
	q := url.Values{}
	q.Set("page", strconv.Itoa(normalizePage(f.Page)))
	q.Set("sort_field", "_id")
	q.Set("sort_type", "asc")
	if f.Country != "" {
		q.Set("country", f.Country)
	}
	if f.Year > 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	q.Set("limit", strconv.Itoa(limit))

	return s.list(ctx, "series", "/v1/api/danh-sach/phim-bo?"+q.Encode(), limit)
}

// ByNation returns movies from one country, identified by its slug.
func (s *CatalogService) ByNation(ctx context.Context, nation string, limit int) []domain.Movie {
	path := "/v1/api/quoc-gia/" + url.PathEscape(nation)
	return s.list(ctx, "nation", path, limit)
}

func (s *CatalogService) Genres(ctx context.Context) []domain.Genre {
	body, err := s.fetch(ctx, "/the-loai")
	if err != nil {
		s.logger.WarnContext(ctx, "catalog genres fetch failed", "error", err)
		return []domain.Genre{}
	}

	var genres []domain.Genre
	if err := json.Unmarshal(body, &genres); err != nil {
		s.logger.WarnContext(ctx, "catalog genres decode failed", "error", err)
		return []domain.Genre{}
	}
	if genres == nil {
		genres = []domain.Genre{}
	}
	return genres
}

func (s *CatalogService) Movie(ctx context.Context, slug string) (*domain.MovieDetail, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, ErrMovieNotFound
	}

	body, err := s.fetch(ctx, "/phim/"+url.PathEscape(slug))
	if err != nil {
		return nil, err
	}

	// A miss comes back as status false with "movie" set to an empty array.
	var status struct {
		Status bool `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("%w: decode movie: %v", ErrCatalogUnavailable, err)
	}
	if !status.Status {
		return nil, ErrMovieNotFound
	}

	var resp movieDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode movie: %v", ErrCatalogUnavailable, err)
	}
	if resp.Movie.Slug == "" {
		return nil, ErrMovieNotFound
	}

	return &domain.MovieDetail{Movie: resp.Movie, Episodes: resp.Episodes}, nil
}

type WatchResult struct {
	Movie   domain.MovieInfo `json:"movie"`
	Server  string           `json:"server"`
	Episode domain.Episode   `json:"episode"`
	Servers []domain.Server  `json:"servers"`
}

// Watch resolves the episode to play. server and episode are 1-based.
func (s *CatalogService) Watch(ctx context.Context, slug string, server, episode int) (*WatchResult, error) {
	detail, err := s.Movie(ctx, slug)
	if err != nil {
		return nil, err
	}

	srv, ep, ok := detail.Selection(server, episode)
	if !ok {
		return nil, ErrEpisodeNotFound
	}

	return &WatchResult{
		Movie:   detail.Movie,
		Server:  srv.ServerName,
		Episode: *ep,
		Servers: detail.Episodes,
	}, nil
}

func (s *CatalogService) list(ctx context.Context, name, path string, limit int) []domain.Movie {
	body, err := s.fetch(ctx, path)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog list fetch failed", "list", name, "error", err)
		return []domain.Movie{}
	}

	var resp movieListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		s.logger.WarnContext(ctx, "catalog list decode failed", "list", name, "error", err)
		return []domain.Movie{}
	}

	items := resp.Items
	if len(items) == 0 {
		items = resp.Data.Items
	}
	limit = normalizeLimit(limit)
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []domain.Movie{}
	}
	return items
}

// fetch returns the upstream body for path, consulting the cache first.
func (s *CatalogService) fetch(ctx context.Context, path string) ([]byte, error) {
	key := "catalog:" + path
	if s.cache != nil {
		if body, ok, err := s.cache.Get(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
		} else if ok {
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrMovieNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: upstream status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if int64(len(body)) > s.maxBody {
		return nil, fmt.Errorf("%w: response larger than %d bytes", ErrCatalogUnavailable, s.maxBody)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, body, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
		}
	}

	return body, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultCatalogLimit
	case limit > maxCatalogLimit:
		return maxCatalogLimit
	}
	return limit
}
