package response

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	TotalPages int         `json:"totalPages"`
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	Empty      bool        `json:"empty"` // 过滤后无记录时显式标记，前端据此渲染"sin registros"行
}

// 响应码定义
const (
	CodeSuccess       = 0
	CodeError         = 1
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeConflict      = 409
	CodeValidateError = 422
	CodeServerError   = 500
)

// Success 成功响应
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(http.StatusOK).JSON(Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 成功响应(带消息)
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(http.StatusOK).JSON(Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *fiber.Ctx, data interface{}, total, totalPages, page, perPage int) error {
	return c.Status(http.StatusOK).JSON(PageResponse{
		Code:       CodeSuccess,
		Message:    "success",
		Data:       data,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PerPage:    perPage,
		Empty:      total == 0,
	})
}

// Error 错误响应
func Error(c *fiber.Ctx, code int, message string) error {
	return c.Status(httpStatus(code)).JSON(Response{
		Code:    code,
		Message: message,
	})
}

// AppError 按应用错误类型响应，验证错误携带字段映射
func AppError(c *fiber.Ctx, err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		if len(appErr.Fields) > 0 {
			return c.Status(httpStatus(appErr.Code)).JSON(Response{
				Code:    appErr.Code,
				Message: appErr.Message,
				Data:    fiber.Map{"errors": appErr.Fields},
			})
		}
		return Error(c, appErr.Code, appErr.Message)
	}
	return ServerError(c, "")
}

// BadRequest 请求错误
func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(Response{
		Code:    CodeError,
		Message: message,
	})
}

// Unauthorized 未授权
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "no autorizado"
	}
	return c.Status(http.StatusUnauthorized).JSON(Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

// Forbidden 禁止访问
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "no tiene permisos para realizar esta acción"
	}
	return c.Status(http.StatusForbidden).JSON(Response{
		Code:    CodeForbidden,
		Message: message,
	})
}

// NotFound 未找到
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "recurso no encontrado"
	}
	return c.Status(http.StatusNotFound).JSON(Response{
		Code:    CodeNotFound,
		Message: message,
	})
}

// Conflict 关联冲突
func Conflict(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusConflict).JSON(Response{
		Code:    CodeConflict,
		Message: message,
	})
}

// ValidateError 验证错误(字段错误映射放在data.errors)
func ValidateError(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(http.StatusBadRequest).JSON(Response{
		Code:    CodeError,
		Message: "error de validación",
		Data:    fiber.Map{"errors": fields},
	})
}

// ServerError 服务器错误，消息带管理员提示后缀
func ServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "error interno del servidor"
	}
	return c.Status(http.StatusInternalServerError).JSON(Response{
		Code:    CodeServerError,
		Message: message + ". Contacte al administrador",
	})
}

// httpStatus 应用错误码到HTTP状态码
func httpStatus(code int) int {
	switch code {
	case 400, 401, 403, 404, 409, 422, 429, 500:
		return code
	case CodeSuccess:
		return http.StatusOK
	default:
		return http.StatusOK
	}
}
