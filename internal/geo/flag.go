package geo

import "strings"

// regionalIndicatorBase 区域指示符基码，'A' 对应 U+1F1E6
const regionalIndicatorBase = 0x1F1E6

const (
	flagLocal   = "🏠"
	flagUnknown = "❓"
	flagGlobe   = "🌍"
)

// CountryFlag 将两位 ISO 国家代码转换为区域指示符旗帜，
// 无效代码返回通用地球符号
func CountryFlag(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return flagGlobe
	}

	var b strings.Builder
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return flagGlobe
		}
		b.WriteRune(rune(regionalIndicatorBase + int(c-'A')))
	}
	return b.String()
}
