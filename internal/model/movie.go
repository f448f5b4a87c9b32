package model

import "strings"

// MovieRecord 推荐结果中的单部电影
type MovieRecord struct {
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"` // YYYY-MM-DD
	Rating      float64 `json:"rating"`
	PosterURL   *string `json:"poster_url"` // 上游无海报时为 nil
}

// ReleaseYear 取上映日期第一个分隔符前的部分
func (m MovieRecord) ReleaseYear() string {
	year, _, _ := strings.Cut(m.ReleaseDate, "-")
	return year
}
