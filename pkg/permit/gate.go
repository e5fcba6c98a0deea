package permit

import "fmt"

// ButtonProps 可操作控件门控的输入
type ButtonProps struct {
	Module   string
	Action   string
	Hidden   bool // 无权限时隐藏而非禁用
	Disabled bool // 外部原因禁用
	Tooltip  string
}

// ButtonDecision 控件渲染判定
type ButtonDecision struct {
	Render   bool   `json:"render"`
	Disabled bool   `json:"disabled"`
	Tooltip  string `json:"tooltip,omitempty"`
}

// Button 计算控件门控。无权限且 hidden 时不渲染；无权限且可见时
// 渲染为禁用并给出解释，模块级拒绝的消息优先于动作级；
// 有权限时合并外部 disabled 标记。
func (s *Snapshot) Button(p ButtonProps) ButtonDecision {
	if s.Allows(p.Module, p.Action) {
		return ButtonDecision{
			Render:   true,
			Disabled: p.Disabled,
			Tooltip:  p.Tooltip,
		}
	}

	if p.Hidden {
		return ButtonDecision{Render: false}
	}

	tooltip := fmt.Sprintf("no tiene permiso para %s en %s", p.Action, p.Module)
	if !s.CanAccessModule(p.Module) {
		tooltip = fmt.Sprintf("no tiene acceso al módulo %s", p.Module)
	}
	return ButtonDecision{
		Render:   true,
		Disabled: true,
		Tooltip:  tooltip,
	}
}

// WrapperProps 内容可见性门控的输入
type WrapperProps struct {
	Module   string
	Action   string
	Fallback bool // 无权限时是否渲染替代内容
}

// WrapperDecision 内容渲染判定
type WrapperDecision struct {
	ShowContent  bool `json:"showContent"`
	ShowFallback bool `json:"showFallback"`
}

// Wrapper 计算内容门控：有权限渲染子内容；无权限时按 Fallback
// 渲染替代内容或什么都不渲染。
func (s *Snapshot) Wrapper(p WrapperProps) WrapperDecision {
	if s.Allows(p.Module, p.Action) {
		return WrapperDecision{ShowContent: true}
	}
	return WrapperDecision{ShowFallback: p.Fallback}
}
