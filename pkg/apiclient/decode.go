package apiclient

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DecodeList 按容忍规则把响应体解码到dest(目标为切片指针)
// 依次尝试: 裸数组, results, data, items, 首个数组属性, 对象值集合
func DecodeList(body []byte, dest interface{}) error {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return json.Unmarshal([]byte("[]"), dest)
	}

	// 裸数组
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(body, dest)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("formato de respuesta no reconocido: %w", err)
	}

	for _, key := range []string{"results", "data", "items"} {
		if raw, ok := envelope[key]; ok && isArray(raw) {
			return json.Unmarshal(raw, dest)
		}
	}

	// 首个数组属性, 键名排序保证确定性
	keys := make([]string, 0, len(envelope))
	for k := range envelope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if isArray(envelope[k]) {
			return json.Unmarshal(envelope[k], dest)
		}
	}

	// 无数组属性时把对象值集合当作列表
	values := make([]json.RawMessage, 0, len(envelope))
	for _, k := range keys {
		if isObject(envelope[k]) {
			values = append(values, envelope[k])
		}
	}
	joined, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(joined, dest)
}

// DecodeError 按优先级从错误响应体提取可展示消息
// 优先级: 纯字符串 > error/detail/message > 字段错误映射
func DecodeError(body []byte, fallback string) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fallback
	}

	// 纯字符串体
	var plain string
	if err := json.Unmarshal(body, &plain); err == nil && plain != "" {
		return plain
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fallback
	}

	for _, key := range []string{"error", "detail", "message"} {
		if raw, ok := envelope[key]; ok {
			if msg := asMessage(raw); msg != "" {
				return msg
			}
		}
	}

	// 字段错误映射: {"campo": "msg"} 或 {"campo": ["msg1", "msg2"]}
	keys := make([]string, 0, len(envelope))
	for k := range envelope {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if msg := asMessage(envelope[k]); msg != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", k, msg))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}

	return fallback
}

// asMessage 把字符串或字符串数组转为单条消息
func asMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return ""
}

func isArray(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return strings.HasPrefix(t, "[")
}

func isObject(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return strings.HasPrefix(t, "{")
}
