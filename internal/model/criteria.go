package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SearchCriteria 从用户自由文本中抽取的检索条件
type SearchCriteria struct {
	Genres []string `json:"genres,omitempty"`
	Actors []string `json:"actors,omitempty"`
	Year   int      `json:"year,omitempty"`
}

// IsEmpty 没有任何过滤条件
func (c SearchCriteria) IsEmpty() bool {
	return len(c.Genres) == 0 && len(c.Actors) == 0 && c.Year == 0
}

// rawCriteria 模型回复的原始结构，genre/actor 兼容单复数键名
type rawCriteria struct {
	Genre  StringList `json:"genre"`
	Genres StringList `json:"genres"`
	Actor  StringList `json:"actor"`
	Actors StringList `json:"actors"`
	Year   Year       `json:"year"`
}

// UnmarshalJSON 解析模型回复，任何字段形状不符都整体失败
func (c *SearchCriteria) UnmarshalJSON(data []byte) error {
	var raw rawCriteria
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	genres := raw.Genres
	if len(genres) == 0 {
		genres = raw.Genre
	}
	actors := raw.Actors
	if len(actors) == 0 {
		actors = raw.Actor
	}

	*c = SearchCriteria{
		Genres: genres,
		Actors: actors,
		Year:   int(raw.Year),
	}
	return nil
}

// StringList 接受单个字符串或字符串数组
type StringList []string

// UnmarshalJSON 单值归一为单元素切片，空串丢弃
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*l = StringList{s}
		} else {
			*l = nil
		}
		return nil
	}

	var items []string
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}

	out := make(StringList, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	*l = out
	return nil
}

// Year 接受数字或数字字符串（模型常把年份加引号）
type Year int

// UnmarshalJSON 空值视为未指定年份
func (y *Year) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*y = 0
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*y = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid year %q", s)
		}
		*y = Year(n)
		return nil
	}

	// 模型偶尔输出 2025.0
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return fmt.Errorf("invalid year: %w", err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("invalid year %v", f)
	}
	*y = Year(f)
	return nil
}
