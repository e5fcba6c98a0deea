// Package formkit 实现 创建/编辑/查看 三模式表单的生命周期与
// 逐字段验证。view 模式不做任何验证。
package formkit

import (
	"fmt"
	"strings"
)

// Mode 表单模式
type Mode int

const (
	ModeClosed Mode = iota
	ModeCreate
	ModeEdit
	ModeView
)

// String 模式名称
func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	case ModeView:
		return "view"
	default:
		return "closed"
	}
}

// Errors 字段名到错误消息的映射
type Errors map[string]string

// Form 表单控制器：持有规则表、字段值与当前错误
type Form struct {
	mode   Mode
	rules  []Rule
	values map[string]string
	errs   Errors
}

// New 创建表单控制器(初始为 closed)
func New(rules []Rule) *Form {
	return &Form{
		mode:   ModeClosed,
		rules:  rules,
		values: make(map[string]string),
		errs:   make(Errors),
	}
}

// Mode 当前模式
func (f *Form) Mode() Mode {
	return f.mode
}

// Open 打开表单。合法转移仅限 closed→create/edit/view；
// create 以空白默认值开始，edit/view 以选中记录预填。
func (f *Form) Open(mode Mode, prefill map[string]string) error {
	if f.mode != ModeClosed {
		return fmt.Errorf("formulario ya abierto en modo %s", f.mode)
	}
	if mode != ModeCreate && mode != ModeEdit && mode != ModeView {
		return fmt.Errorf("modo de apertura inválido: %s", mode)
	}
	if mode != ModeCreate && prefill == nil {
		return fmt.Errorf("modo %s requiere datos precargados", mode)
	}

	f.mode = mode
	f.values = make(map[string]string, len(prefill))
	for k, v := range prefill {
		f.values[k] = v
	}
	f.errs = make(Errors)
	return nil
}

// Close 关闭表单，清空值与错误。任何打开模式都可关闭。
func (f *Form) Close() {
	f.mode = ModeClosed
	f.values = make(map[string]string)
	f.errs = make(Errors)
}

// Set 写入字段值并立即重验证该字段：值有效时清除该字段错误，
// 不触碰其他字段的错误状态。view 模式只写值不验证。
func (f *Form) Set(field, value string) {
	f.values[field] = value
	if f.mode != ModeCreate && f.mode != ModeEdit {
		return
	}
	for _, r := range f.rules {
		if r.Field != field {
			continue
		}
		if msg := r.check(value); msg != "" {
			f.errs[field] = msg
		} else {
			delete(f.errs, field)
		}
		return
	}
}

// Value 读取字段值
func (f *Form) Value(field string) string {
	return f.values[field]
}

// Errors 当前错误映射的副本
func (f *Form) Errors() Errors {
	out := make(Errors, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Validate 提交前聚合验证全部规则。view/closed 模式不验证，
// 返回 nil。返回非空映射时提交应被阻止。
func (f *Form) Validate() Errors {
	if f.mode != ModeCreate && f.mode != ModeEdit {
		return nil
	}
	errs := make(Errors)
	for _, r := range f.rules {
		if msg := r.check(f.values[r.Field]); msg != "" {
			errs[r.Field] = msg
		}
	}
	f.errs = errs
	if len(errs) == 0 {
		return nil
	}
	return f.Errors()
}

// SetErrors 服务端验证失败时整体替换错误映射
func (f *Form) SetErrors(errs Errors) {
	f.errs = make(Errors, len(errs))
	for k, v := range errs {
		f.errs[k] = v
	}
}

// Payload 构造提交载荷：裁剪字符串并丢弃 omit 指定的字段
// (如创建insumo时由服务端管理的数量)。
func (f *Form) Payload(omit ...string) map[string]string {
	skip := make(map[string]struct{}, len(omit))
	for _, k := range omit {
		skip[k] = struct{}{}
	}
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		if _, ok := skip[k]; ok {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}
