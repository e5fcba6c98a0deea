package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UUID 生成UUID
func UUID() string {
	return uuid.New().String()
}

// UUIDWithoutDash 生成不带横线的UUID
func UUIDWithoutDash() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Contains 检查切片是否包含元素
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// DateStamp 日期戳, 用于导出文件名
func DateStamp(t time.Time) string {
	return t.Format("02-01-2006")
}
