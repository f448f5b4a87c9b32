package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moviebot/internal/model"
	"github.com/user/moviebot/internal/utils"
	"go.uber.org/zap/zaptest"
)

const genreListJSON = `{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comedy"},{"id":27,"name":"Horror"}]}`

// fakeTMDB 模拟 TMDB 的三个接口，并记录 discover 请求参数
type fakeTMDB struct {
	mu           sync.Mutex
	genreStatus  int
	people       map[string]int
	discoverBody string
	discoverCode int
	discover     []url.Values
	personCalls  []string
}

func (f *fakeTMDB) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tmdb-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/genre/movie/list":
			if f.genreStatus != 0 {
				w.WriteHeader(f.genreStatus)
				return
			}
			_, _ = w.Write([]byte(genreListJSON))
		case "/search/person":
			name := r.URL.Query().Get("query")
			f.mu.Lock()
			f.personCalls = append(f.personCalls, name)
			f.mu.Unlock()
			if id, ok := f.people[name]; ok {
				fmt.Fprintf(w, `{"results":[{"id":%d,"name":%q},{"id":999,"name":"Someone Else"}]}`, id, name)
				return
			}
			_, _ = w.Write([]byte(`{"results":[]}`))
		case "/discover/movie":
			f.mu.Lock()
			f.discover = append(f.discover, r.URL.Query())
			f.mu.Unlock()
			if f.discoverCode != 0 {
				w.WriteHeader(f.discoverCode)
			}
			_, _ = w.Write([]byte(f.discoverBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func discoverResults(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":%d,"title":"Movie %d","overview":"o","release_date":"2025-0%d-01","vote_average":7.%d,"poster_path":"/p%d.jpg"}`, i+1, i+1, i%9+1, i, i+1)
	}
	return `{"page":1,"results":[` + strings.Join(items, ",") + `]}`
}

func newTestTMDBService(t *testing.T, fake *fakeTMDB) *TMDBService {
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	cfg := testConfig()
	cfg.TMDBBaseURL = server.URL
	return NewTMDBService(utils.NewHTTPClient(0), cfg, zaptest.NewLogger(t))
}

func TestRecommendBuildsDiscoverQuery(t *testing.T) {
	fake := &fakeTMDB{
		people:       map[string]int{"Jim Carrey": 206, "Jeff Daniels": 8447},
		discoverBody: discoverResults(3),
	}
	svc := newTestTMDBService(t, fake)

	movies, err := svc.Recommend(context.Background(), model.SearchCriteria{
		Genres: []string{"comedy", "Western", "Action"},
		Actors: []string{"Jim Carrey", "Nobody Known", "Jeff Daniels"},
		Year:   1994,
	})

	require.NoError(t, err)
	assert.Len(t, movies, 3)
	require.Len(t, fake.discover, 1)
	q := fake.discover[0]
	assert.Equal(t, "35,28", q.Get("with_genres"))
	assert.Equal(t, "206,8447", q.Get("with_cast"))
	assert.Equal(t, "1994", q.Get("primary_release_year"))
	assert.Equal(t, "popularity.desc", q.Get("sort_by"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "en-US", q.Get("language"))
}

func TestRecommendUnresolvedActorDropsCastFilter(t *testing.T) {
	fake := &fakeTMDB{discoverBody: discoverResults(2)}
	svc := newTestTMDBService(t, fake)

	movies, err := svc.Recommend(context.Background(), model.SearchCriteria{Actors: []string{"Jim Carrey"}})

	require.NoError(t, err)
	assert.Len(t, movies, 2)
	assert.Equal(t, []string{"Jim Carrey"}, fake.personCalls)
	require.Len(t, fake.discover, 1)
	assert.False(t, fake.discover[0].Has("with_cast"))
}

func TestRecommendGenreLookupFailureDropsGenreFilter(t *testing.T) {
	fake := &fakeTMDB{genreStatus: http.StatusInternalServerError, discoverBody: discoverResults(1)}
	svc := newTestTMDBService(t, fake)

	movies, err := svc.Recommend(context.Background(), model.SearchCriteria{Genres: []string{"Horror"}, Year: 2025})

	require.NoError(t, err)
	assert.Len(t, movies, 1)
	require.Len(t, fake.discover, 1)
	assert.False(t, fake.discover[0].Has("with_genres"))
	assert.Equal(t, "2025", fake.discover[0].Get("primary_release_year"))
}

func TestRecommendWithoutFiltersSkipsLookups(t *testing.T) {
	fake := &fakeTMDB{discoverBody: discoverResults(1)}
	svc := newTestTMDBService(t, fake)

	_, err := svc.Recommend(context.Background(), model.SearchCriteria{})

	require.NoError(t, err)
	assert.Empty(t, fake.personCalls)
	require.Len(t, fake.discover, 1)
	assert.False(t, fake.discover[0].Has("with_genres"))
	assert.False(t, fake.discover[0].Has("with_cast"))
	assert.False(t, fake.discover[0].Has("primary_release_year"))
}

func TestRecommendTruncatesToFiveInResponseOrder(t *testing.T) {
	fake := &fakeTMDB{discoverBody: discoverResults(8)}
	svc := newTestTMDBService(t, fake)

	movies, err := svc.Recommend(context.Background(), model.SearchCriteria{})

	require.NoError(t, err)
	require.Len(t, movies, MaxRecommendations)
	for i, movie := range movies {
		assert.Equal(t, fmt.Sprintf("Movie %d", i+1), movie.Title)
	}
	require.NotNil(t, movies[0].PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/p1.jpg", *movies[0].PosterURL)
	assert.InDelta(t, 7.0, movies[0].Rating, 1e-9)
}

func TestRecommendMissingPosterIsNil(t *testing.T) {
	fake := &fakeTMDB{discoverBody: `{"results":[
		{"title":"No Poster","release_date":"2020-01-01","poster_path":null},
		{"title":"Empty Poster","release_date":"2021-01-01","poster_path":""}
	]}`}
	svc := newTestTMDBService(t, fake)

	movies, err := svc.Recommend(context.Background(), model.SearchCriteria{})

	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Nil(t, movies[0].PosterURL)
	assert.Nil(t, movies[1].PosterURL)
}

func TestRecommendDiscoverFailures(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		kind CatalogErrorKind
	}{
		{name: "status", code: http.StatusUnauthorized, body: `{"status_message":"Invalid API key"}`, kind: CatalogStatus},
		{name: "decode", body: `<html>oops</html>`, kind: CatalogDecode},
		{name: "shape", body: `{"results":"nope"}`, kind: CatalogDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTMDB{discoverCode: tt.code, discoverBody: tt.body}
			svc := newTestTMDBService(t, fake)

			movies, err := svc.Recommend(context.Background(), model.SearchCriteria{})

			assert.Empty(t, movies)
			var catalogErr *CatalogError
			require.ErrorAs(t, err, &catalogErr)
			assert.Equal(t, tt.kind, catalogErr.Kind)
		})
	}
}

func TestRecommendTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	cfg := testConfig()
	cfg.TMDBBaseURL = server.URL
	svc := NewTMDBService(utils.NewHTTPClient(0), cfg, zaptest.NewLogger(t))

	movies, err := svc.Recommend(context.Background(), model.SearchCriteria{Genres: []string{"Horror"}})

	assert.Empty(t, movies)
	var catalogErr *CatalogError
	require.ErrorAs(t, err, &catalogErr)
	assert.Equal(t, CatalogTransport, catalogErr.Kind)
}
