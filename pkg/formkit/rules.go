package formkit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/salonback/pkg/listkit"
)

// Rule 单字段验证规则
type Rule struct {
	Field      string
	Label      string
	Required   bool
	MinLen     int
	MaxLen     int
	Pattern    *regexp.Regexp
	PatternMsg string
	Min        *float64 // 数值下界(含)
	Max        *float64 // 数值上界(含)
	Custom     func(value string) string
}

// 常用格式
var (
	PatternEmail    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	PatternPhone    = regexp.MustCompile(`^\d{7,10}$`)
	PatternDocument = regexp.MustCompile(`^\d{6,12}$`)
)

// check 验证单个值，返回空串表示通过
func (r Rule) check(value string) string {
	v := strings.TrimSpace(value)

	if v == "" {
		if r.Required {
			return fmt.Sprintf("el campo %s es obligatorio", r.Label)
		}
		return ""
	}

	if r.MinLen > 0 && len([]rune(v)) < r.MinLen {
		return fmt.Sprintf("el campo %s debe tener al menos %d caracteres", r.Label, r.MinLen)
	}
	if r.MaxLen > 0 && len([]rune(v)) > r.MaxLen {
		return fmt.Sprintf("el campo %s no puede exceder %d caracteres", r.Label, r.MaxLen)
	}

	if r.Pattern != nil && !r.Pattern.MatchString(v) {
		if r.PatternMsg != "" {
			return r.PatternMsg
		}
		return fmt.Sprintf("el campo %s tiene un formato inválido", r.Label)
	}

	if r.Min != nil || r.Max != nil {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Sprintf("el campo %s debe ser numérico", r.Label)
		}
		if r.Min != nil && n < *r.Min {
			return fmt.Sprintf("el campo %s debe ser mayor o igual a %s", r.Label, trimFloat(*r.Min))
		}
		if r.Max != nil && n > *r.Max {
			return fmt.Sprintf("el campo %s debe ser menor o igual a %s", r.Label, trimFloat(*r.Max))
		}
	}

	if r.Custom != nil {
		return r.Custom(v)
	}
	return ""
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Float 数值边界辅助
func Float(f float64) *float64 {
	return &f
}

// IsDuplicate 判断候选值是否与已有集合中某个值重复，
// 比较不区分大小写与变音符号("Esmaltes" 与 "esmaltés" 重复)。
func IsDuplicate(existing []string, candidate string) bool {
	want := listkit.Normalize(candidate)
	if want == "" {
		return false
	}
	for _, e := range existing {
		if listkit.Normalize(e) == want {
			return true
		}
	}
	return false
}
