// Package common 领域模块共享的请求解析与响应辅助
package common

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
	"github.com/salonback/pkg/response"
)

// Validate 以创建模式跑一遍规则表, 返回字段错误映射, 全部通过返回 nil
func Validate(rules []formkit.Rule, values map[string]string) formkit.Errors {
	f := formkit.New(rules)
	if err := f.Open(formkit.ModeCreate, nil); err != nil {
		return formkit.Errors{"form": err.Error()}
	}
	for k, v := range values {
		f.Set(k, v)
	}
	return f.Validate()
}

// ParseView 从查询参数解析列表视图状态
// page/perPage 非法时回落到默认值, 由 listkit 负责收窄页码
func ParseView(c *fiber.Ctx) listkit.View {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.Query("perPage", "10"))
	if err != nil || perPage < 1 {
		perPage = 10
	}

	dir := listkit.Asc
	if c.Query("dir") == string(listkit.Desc) {
		dir = listkit.Desc
	}

	return listkit.View{
		Search:  c.Query("search"),
		SortKey: c.Query("sortKey"),
		Dir:     dir,
		Page:    page,
		PerPage: perPage,
	}
}

// Page 输出分页结果
func Page[T any](c *fiber.Ctx, r listkit.Result[T]) error {
	return response.SuccessPage(c, r.Items, r.Total, r.TotalPages, r.Page, r.PerPage)
}

// FormatFloat 数值字段的排序/搜索用字符串表示
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatInt 整数字段的排序/搜索用字符串表示
func FormatInt(n int) string {
	return strconv.Itoa(n)
}

// FormatID 标识字段的字符串表示
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
