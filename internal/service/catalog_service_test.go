package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dom/phim-stream/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func moviesJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"_id":"id%d","name":"Movie %d","slug":"movie-%d","year":2024}`, i, i, i)
	}
	return "[" + strings.Join(items, ",") + "]"
}

const detailJSON = `{
  "status": true,
  "movie": {"_id":"m1","name":"Phim","slug":"phim","origin_name":"Film","content":"plot","actor":["A"],"category":[{"id":"c1","name":"Action","slug":"hanh-dong"}]},
  "episodes": [
    {"server_name":"Vietsub","server_data":[
      {"name":"Tap 1","slug":"tap-1","link_embed":"https://embed/1","link_m3u8":"https://m3u8/1"},
      {"name":"Tap 2","slug":"tap-2","link_embed":"https://embed/2","link_m3u8":"https://m3u8/2"}
    ]},
    {"server_name":"Thuyet minh","server_data":[
      {"name":"Tap 1","slug":"tap-1","link_embed":"https://embed/tm1","link_m3u8":"https://m3u8/tm1"}
    ]}
  ]
}`

func newUpstream(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/danh-sach/phim-moi-cap-nhat", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		fmt.Fprintf(w, `{"status":true,"items":%s}`, moviesJSON(30))
	})
	mux.HandleFunc("/v1/api/danh-sach/hoat-hinh", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, `{"status":"success","data":{"items":%s}}`, moviesJSON(5))
	})
	mux.HandleFunc("/v1/api/quoc-gia/han-quoc", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, `{"data":{"items":%s}}`, moviesJSON(3))
	})
	mux.HandleFunc("/v1/api/quoc-gia/broken", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"data":`)
	})
	mux.HandleFunc("/v1/api/danh-sach/phim-bo", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		if q.Get("country") != "han-quoc" || q.Get("year") != "2024" || q.Get("sort_field") != "_id" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"status":"success","data":{"items":%s}}`, moviesJSON(12))
	})
	mux.HandleFunc("/the-loai", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `[{"_id":"g1","name":"Hanh Dong","slug":"hanh-dong"},{"_id":"g2","name":"Hai","slug":"hai"}]`)
	})
	mux.HandleFunc("/phim/phim", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, detailJSON)
	})
	mux.HandleFunc("/phim/missing", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"status":false,"msg":"Movie not found","movie":[],"episodes":[]}`)
	})
	mux.HandleFunc("/phim/down", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newCatalog(baseURL string, cache service.CatalogCache) *service.CatalogService {
	return service.NewCatalogService(service.CatalogOptions{
		BaseURL:  baseURL,
		Timeout:  2 * time.Second,
		Cache:    cache,
		CacheTTL: time.Minute,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestCatalogService_Lists(t *testing.T) {
	var hits atomic.Int32
	upstream := newUpstream(t, &hits)
	catalog := newCatalog(upstream.URL, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		fetch func() int
		want  int
	}{
		{name: "latest uses default limit", fetch: func() int { return len(catalog.Latest(ctx, 2, 0)) }, want: 20},
		{name: "latest honours limit", fetch: func() int { return len(catalog.Latest(ctx, 2, 7)) }, want: 7},
		{name: "latest caps limit", fetch: func() int { return len(catalog.Latest(ctx, 2, 1000)) }, want: 30},
		{name: "anime reads data.items", fetch: func() int { return len(catalog.Anime(ctx, 1, 20)) }, want: 5},
		{name: "nation", fetch: func() int { return len(catalog.ByNation(ctx, "han-quoc", 20)) }, want: 3},
		{name: "nation decode failure is empty", fetch: func() int { return len(catalog.ByNation(ctx, "broken", 20)) }, want: 0},
		{name: "unknown nation is empty", fetch: func() int { return len(catalog.ByNation(ctx, "nowhere", 20)) }, want: 0},
		{name: "series with filters", fetch: func() int {
			return len(catalog.Series(ctx, service.SeriesFilter{Page: 1, Country: "han-quoc", Year: 2024, Limit: 10}))
		}, want: 10},
		{name: "series upstream rejects filters", fetch: func() int {
			return len(catalog.Series(ctx, service.SeriesFilter{Country: "my"}))
		}, want: 0},
		{name: "genres", fetch: func() int { return len(catalog.Genres(ctx)) }, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fetch())
		})
	}
}

func TestCatalogService_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	catalog := newCatalog(upstream.URL, nil)
	ctx := context.Background()

	latest := catalog.Latest(ctx, 1, 20)
	require.NotNil(t, latest)
	assert.Empty(t, latest)
	assert.NotNil(t, catalog.Genres(ctx))

	_, err := catalog.Movie(ctx, "phim")
	assert.ErrorIs(t, err, service.ErrCatalogUnavailable)
}

func TestCatalogService_Movie(t *testing.T) {
	var hits atomic.Int32
	upstream := newUpstream(t, &hits)
	catalog := newCatalog(upstream.URL, nil)
	ctx := context.Background()

	detail, err := catalog.Movie(ctx, "phim")
	require.NoError(t, err)
	assert.Equal(t, "Phim", detail.Movie.Name)
	assert.Equal(t, []string{"A"}, detail.Movie.Actor)
	require.Len(t, detail.Episodes, 2)
	assert.Equal(t, "Vietsub", detail.Episodes[0].ServerName)
	assert.Len(t, detail.Episodes[0].Episodes, 2)

	_, err = catalog.Movie(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrMovieNotFound)

	_, err = catalog.Movie(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrMovieNotFound)

	_, err = catalog.Movie(ctx, "")
	assert.ErrorIs(t, err, service.ErrMovieNotFound)

	_, err = catalog.Movie(ctx, "down")
	assert.ErrorIs(t, err, service.ErrCatalogUnavailable)
}

func TestCatalogService_Watch(t *testing.T) {
	var hits atomic.Int32
	upstream := newUpstream(t, &hits)
	catalog := newCatalog(upstream.URL, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		server     int
		episode    int
		wantErr    error
		wantServer string
		wantLink   string
	}{
		{name: "first episode", server: 1, episode: 1, wantServer: "Vietsub", wantLink: "https://m3u8/1"},
		{name: "second episode", server: 1, episode: 2, wantServer: "Vietsub", wantLink: "https://m3u8/2"},
		{name: "second server", server: 2, episode: 1, wantServer: "Thuyet minh", wantLink: "https://m3u8/tm1"},
		{name: "episode out of range", server: 2, episode: 2, wantErr: service.ErrEpisodeNotFound},
		{name: "server out of range", server: 3, episode: 1, wantErr: service.ErrEpisodeNotFound},
		{name: "zero index", server: 0, episode: 1, wantErr: service.ErrEpisodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := catalog.Watch(ctx, "phim", tt.server, tt.episode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantServer, result.Server)
			assert.Equal(t, tt.wantLink, result.Episode.LinkM3U8)
			assert.Len(t, result.Servers, 2)
		})
	}
}

func TestCatalogService_Cache(t *testing.T) {
	var hits atomic.Int32
	upstream := newUpstream(t, &hits)
	cache := newMemoryCache()
	catalog := newCatalog(upstream.URL, cache)
	ctx := context.Background()

	first := catalog.Genres(ctx)
	second := catalog.Genres(ctx)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())

	_, ok, err := cache.Get(ctx, "catalog:/the-loai")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = catalog.Movie(ctx, "down")
	require.Error(t, err)
	_, ok, _ = cache.Get(ctx, "catalog:/phim/down")
	assert.False(t, ok, "failed responses are not cached")
}

func TestCatalogService_OversizedResponse(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, detailJSON)
	}))
	t.Cleanup(upstream.Close)

	cache := newMemoryCache()
	catalog := service.NewCatalogService(service.CatalogOptions{
		BaseURL:      upstream.URL,
		Cache:        cache,
		CacheTTL:     time.Minute,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxBodyBytes: 64,
	})
	ctx := context.Background()

	_, err := catalog.Movie(ctx, "phim")
	assert.ErrorIs(t, err, service.ErrCatalogUnavailable)

	_, ok, _ := cache.Get(ctx, "catalog:/phim/phim")
	assert.False(t, ok, "oversized responses are not cached")

	_, err = catalog.Movie(ctx, "phim")
	assert.ErrorIs(t, err, service.ErrCatalogUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}
