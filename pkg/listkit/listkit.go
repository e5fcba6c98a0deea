// Package listkit 实现管理页面通用的列表视图：对已取回的集合做
// 文本搜索、单键稳定排序和客户端分页。所有比较基于 Normalize 规则。
package listkit

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind 字段比较类型
type Kind int

const (
	Text Kind = iota
	Numeric
	Date
)

// Direction 排序方向
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Field 可搜索/可排序字段：Key 为对外名称，Value 提取字符串表示
type Field[T any] struct {
	Key   string
	Kind  Kind
	Value func(T) string
}

// Config 每个实体的列表配置
type Config[T any] struct {
	Fields []Field[T]        // 全部已知字段(排序用)
	Search []string          // 子串搜索的字段Key列表
	// Keywords 状态关键词：规范化关键词 -> 精确匹配的字段Key。
	// 搜索词恰好等于关键词时按字段相等过滤，避免子串误报
	// (名称含"activo"的记录不应命中搜索词"inactivo")。
	Keywords map[string]string
}

// View 列表视图状态
type View struct {
	Search  string
	SortKey string
	Dir     Direction
	Page    int
	PerPage int
}

// WithSearch 更换搜索词并复位到第1页
func (v View) WithSearch(term string) View {
	v.Search = term
	v.Page = 1
	return v
}

// WithPerPage 更换每页数量并复位到第1页
func (v View) WithPerPage(n int) View {
	v.PerPage = n
	v.Page = 1
	return v
}

// Result 列表结果
type Result[T any] struct {
	Items      []T
	Total      int
	TotalPages int
	Page       int
	PerPage    int
}

func (c Config[T]) field(key string) (Field[T], bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Filter 过滤集合。空搜索词返回全部；搜索词等于配置的状态关键词时
// 按该字段精确匹配；否则在搜索字段列表上做规范化子串匹配。
func (c Config[T]) Filter(items []T, term string) []T {
	q := Normalize(term)
	if q == "" {
		return items
	}

	if key, ok := c.Keywords[q]; ok {
		if f, ok := c.field(key); ok {
			out := make([]T, 0, len(items))
			for _, it := range items {
				if Normalize(f.Value(it)) == q {
					out = append(out, it)
				}
			}
			return out
		}
	}

	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, key := range c.Search {
			f, ok := c.field(key)
			if !ok {
				continue
			}
			if strings.Contains(Normalize(f.Value(it)), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Sort 按单键稳定排序，返回新切片。未知键保持原顺序。
func (c Config[T]) Sort(items []T, key string, dir Direction) []T {
	out := make([]T, len(items))
	copy(out, items)

	f, ok := c.field(key)
	if !ok || key == "" {
		return out
	}

	sign := 1
	if dir == Desc {
		sign = -1
	}

	sort.SliceStable(out, func(i, j int) bool {
		return compare(f.Kind, f.Value(out[i]), f.Value(out[j]))*sign < 0
	})
	return out
}

// compare 按字段类型比较两个字符串表示
func compare(kind Kind, a, b string) int {
	switch kind {
	case Numeric:
		fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	case Date:
		ta, errA := parseDate(a)
		tb, errB := parseDate(b)
		if errA == nil && errB == nil {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(a, b)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Pages 总页数 ceil(n/perPage)
func Pages(n, perPage int) int {
	if perPage <= 0 || n <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// Paginate 取出指定页，页码收窄到 [1, Pages(n)]。
// 返回页内元素与实际使用的页码。
func Paginate[T any](items []T, page, perPage int) ([]T, int) {
	if perPage < 1 {
		perPage = 1
	}
	total := Pages(len(items), perPage)
	if page < 1 {
		page = 1
	}
	if total > 0 && page > total {
		page = total
	}
	if len(items) == 0 {
		return []T{}, 1
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page
}

// Apply 按视图状态执行 过滤→排序→分页
func (c Config[T]) Apply(items []T, v View) Result[T] {
	if v.PerPage < 1 {
		v.PerPage = 10
	}

	filtered := c.Filter(items, v.Search)
	sorted := c.Sort(filtered, v.SortKey, v.Dir)
	pageItems, page := Paginate(sorted, v.Page, v.PerPage)

	return Result[T]{
		Items:      pageItems,
		Total:      len(filtered),
		TotalPages: Pages(len(filtered), v.PerPage),
		Page:       page,
		PerPage:    v.PerPage,
	}
}
