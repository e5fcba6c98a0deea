package inflight

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Group 去重执行组, 同一键的并发调用共享一次执行
// 执行结束后立即清除键, 后续调用触发新的执行
type Group struct {
	sf singleflight.Group
}

// New 创建去重执行组
func New() *Group {
	return &Group{}
}

// Do 执行fn, 同键并发调用合并为一次并共享结果
func (g *Group) Do(key string, fn func() (interface{}, error)) (interface{}, bool, error) {
	var shared bool
	v, err, sh := g.sf.Do(key, func() (interface{}, error) {
		defer g.sf.Forget(key)
		return fn()
	})
	shared = sh
	return v, shared, err
}

// ToggleKey 构建状态切换操作的去重键
func ToggleKey(module string, id int64) string {
	return fmt.Sprintf("toggle-%s-%d", module, id)
}
