package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/user/moviebot/internal/config"
	"github.com/user/moviebot/internal/metrics"
	"github.com/user/moviebot/internal/model"
	"github.com/user/moviebot/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxRecommendations 单次推荐最多返回的条数
const MaxRecommendations = 5

// actorSearchConcurrency 演员名并发检索上限
const actorSearchConcurrency = 4

// CatalogErrorKind 目录服务失败类别
type CatalogErrorKind string

const (
	CatalogTransport CatalogErrorKind = "transport"
	CatalogStatus    CatalogErrorKind = "status"
	CatalogDecode    CatalogErrorKind = "decode"
)

// CatalogError 目录查询失败，和正常结果严格分开返回
type CatalogError struct {
	Kind CatalogErrorKind
	Op   string
	Err  error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("tmdb %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func newCatalogError(op string, err error) *CatalogError {
	kind := CatalogTransport
	var statusErr *utils.StatusError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &statusErr):
		kind = CatalogStatus
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		kind = CatalogDecode
	}
	return &CatalogError{Kind: kind, Op: op, Err: err}
}

// TMDBService 把检索条件解析为 TMDB 内部 ID 并执行 discover 查询
type TMDBService struct {
	http         *utils.HTTPClient
	baseURL      string
	imageBaseURL string
	apiKey       string
	language     string
	log          *zap.Logger
}

// NewTMDBService 创建 TMDB 服务
func NewTMDBService(httpClient *utils.HTTPClient, cfg *config.Config, log *zap.Logger) *TMDBService {
	return &TMDBService{
		http:         httpClient,
		baseURL:      strings.TrimRight(cfg.TMDBBaseURL, "/"),
		imageBaseURL: cfg.TMDBImageBaseURL,
		apiKey:       cfg.TMDBAPIKey,
		language:     cfg.TMDBLanguage,
		log:          log.Named("tmdb"),
	}
}

type tmdbGenreListResponse struct {
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbPersonSearchResponse struct {
	Results []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"results"`
}

type tmdbDiscoverResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Overview    string  `json:"overview"`
		ReleaseDate string  `json:"release_date"`
		VoteAverage float64 `json:"vote_average"`
		PosterPath  string  `json:"poster_path"`
	} `json:"results"`
}

// Recommend 按条件返回最多 5 部电影，按热度降序。
// 类型和演员解析失败时只丢掉对应过滤条件；只有 discover 本身失败才返回 *CatalogError。
func (s *TMDBService) Recommend(ctx context.Context, criteria model.SearchCriteria) ([]model.MovieRecord, error) {
	var genreIDs, actorIDs []int

	// 类型和演员互不依赖，并发解析后再汇合
	var g errgroup.Group
	if len(criteria.Genres) > 0 {
		g.Go(func() error {
			genreIDs = s.resolveGenres(ctx, criteria.Genres)
			return nil
		})
	}
	if len(criteria.Actors) > 0 {
		g.Go(func() error {
			actorIDs = s.resolveActors(ctx, criteria.Actors)
			return nil
		})
	}
	_ = g.Wait()

	params := url.Values{}
	params.Set("language", s.language)
	params.Set("sort_by", "popularity.desc")
	params.Set("page", "1")
	if len(genreIDs) > 0 {
		params.Set("with_genres", joinIDs(genreIDs))
	}
	if len(actorIDs) > 0 {
		params.Set("with_cast", joinIDs(actorIDs))
	}
	if criteria.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(criteria.Year))
	}

	var result tmdbDiscoverResponse
	if err := s.get(ctx, "/discover/movie", params, &result); err != nil {
		catalogErr := newCatalogError("discover", err)
		s.log.Error("discover 查询失败", zap.String("kind", string(catalogErr.Kind)), zap.Error(err))
		return nil, catalogErr
	}

	n := len(result.Results)
	if n > MaxRecommendations {
		n = MaxRecommendations
	}
	movies := make([]model.MovieRecord, 0, n)
	for _, r := range result.Results[:n] {
		movie := model.MovieRecord{
			Title:       r.Title,
			Overview:    r.Overview,
			ReleaseDate: r.ReleaseDate,
			Rating:      r.VoteAverage,
		}
		if r.PosterPath != "" {
			poster := s.imageBaseURL + r.PosterPath
			movie.PosterURL = &poster
		}
		movies = append(movies, movie)
	}

	s.log.Debug("discover 完成",
		zap.Ints("genre_ids", genreIDs),
		zap.Ints("actor_ids", actorIDs),
		zap.Int("year", criteria.Year),
		zap.Int("results", len(result.Results)),
	)
	return movies, nil
}

// resolveGenres 每次都重新拉取类型表，名称大小写不敏感，未命中的名称直接丢弃
func (s *TMDBService) resolveGenres(ctx context.Context, names []string) []int {
	params := url.Values{}
	params.Set("language", s.language)

	var result tmdbGenreListResponse
	if err := s.get(ctx, "/genre/movie/list", params, &result); err != nil {
		s.log.Warn("获取类型列表失败，忽略类型过滤", zap.Error(err))
		return nil
	}

	genreMap := make(map[string]int, len(result.Genres))
	for _, genre := range result.Genres {
		genreMap[strings.ToLower(genre.Name)] = genre.ID
	}

	ids := make([]int, 0, len(names))
	for _, name := range names {
		if id, ok := genreMap[strings.ToLower(strings.TrimSpace(name))]; ok {
			ids = append(ids, id)
		} else {
			s.log.Info("未识别的类型", zap.String("genre", name))
		}
	}
	return ids
}

// resolveActors 每个名字独立检索，只取排名第一的结果；失败或无结果的名字被丢弃，顺序与输入一致
func (s *TMDBService) resolveActors(ctx context.Context, names []string) []int {
	found := make([]int, len(names))

	var g errgroup.Group
	g.SetLimit(actorSearchConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			found[i] = s.searchPerson(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	ids := make([]int, 0, len(names))
	for _, id := range found {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// searchPerson 返回 0 表示未找到
func (s *TMDBService) searchPerson(ctx context.Context, name string) int {
	params := url.Values{}
	params.Set("query", name)

	var result tmdbPersonSearchResponse
	if err := s.get(ctx, "/search/person", params, &result); err != nil {
		s.log.Warn("检索演员失败", zap.String("actor", name), zap.Error(err))
		return 0
	}
	if len(result.Results) == 0 {
		s.log.Info("未找到演员", zap.String("actor", name))
		return 0
	}
	return result.Results[0].ID
}

func (s *TMDBService) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	params.Set("api_key", s.apiKey)
	endpoint := s.baseURL + path + "?" + params.Encode()

	start := time.Now()
	err := s.http.GetJSON(ctx, endpoint, nil, target)
	metrics.ObserveUpstream(metrics.UpstreamTMDB, time.Since(start).Seconds(), err)
	return err
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
