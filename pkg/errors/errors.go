package errors

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	ErrNotFound          = New(404, "recurso no encontrado")
	ErrUnauthorized      = New(401, "no autorizado")
	ErrForbidden         = New(403, "no tiene permisos para realizar esta acción")
	ErrBadRequest        = New(400, "solicitud inválida")
	ErrInternalServer    = New(500, "error interno del servidor")
	ErrValidation        = New(422, "error de validación")
	ErrDuplicateEntry    = New(409, "el registro ya existe")
	ErrInvalidCredential = New(401, "usuario o contraseña incorrectos")
	ErrTokenExpired      = New(401, "el token ha expirado")
	ErrTokenInvalid      = New(401, "token inválido")
)

// AppError 应用错误
type AppError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"` // 按字段的验证错误
	Err     error             `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 解包错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is 检查是否为指定错误
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 类型转换错误
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode 获取错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 500
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// NotFound 创建未找到错误
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    404,
		Message: fmt.Sprintf("%s no encontrado", resource),
	}
}

// BadRequest 创建请求错误
func BadRequest(message string) *AppError {
	return &AppError{
		Code:    400,
		Message: message,
	}
}

// Forbidden 创建禁止访问错误
func Forbidden(message string) *AppError {
	if message == "" {
		message = ErrForbidden.Message
	}
	return &AppError{
		Code:    403,
		Message: message,
	}
}

// Validation 创建验证错误(带字段错误映射)
func Validation(fields map[string]string) *AppError {
	return &AppError{
		Code:    400,
		Message: "error de validación",
		Fields:  fields,
	}
}

// ValidationMsg 创建验证错误(单条消息)
func ValidationMsg(message string) *AppError {
	return &AppError{
		Code:    400,
		Message: message,
	}
}

// Internal 创建内部错误，消息带管理员提示后缀
func Internal(message string) *AppError {
	if message == "" {
		message = "error interno del servidor"
	}
	return &AppError{
		Code:    500,
		Message: message + ". Contacte al administrador",
	}
}

// Duplicate 创建重复错误
func Duplicate(field string) *AppError {
	return &AppError{
		Code:    409,
		Message: fmt.Sprintf("ya existe un registro con ese %s", field),
	}
}

// Association 创建关联拒绝错误：删除/停用被关联数据阻止。
// 消息点名阻塞数量与关联实体，前端可直接展示。
func Association(entity string, count int64, relation string) *AppError {
	return &AppError{
		Code:    409,
		Message: fmt.Sprintf("no se puede completar la acción: %s tiene %d %s asociado(s)", entity, count, relation),
	}
}
