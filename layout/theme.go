package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/slidegenius/deck"
)

// LayoutStyle 是作用于全部内容页的装饰方式。
type LayoutStyle string

const (
	StyleClean  LayoutStyle = "clean"
	StyleBold   LayoutStyle = "bold"
	StyleFramed LayoutStyle = "framed"
)

// 逻辑字体家族，由渲染后端映射为具体字体。
const (
	FamilyHelvetica = "helvetica"
	FamilyTimes     = "times"
	FamilyCourier   = "courier"
)

// 字体样式。
const (
	FontRegular = "regular"
	FontBold    = "bold"
	FontItalic  = "italic"
)

// ThemeConfig 是主题解析后的视觉参数。
type ThemeConfig struct {
	Primary    Color       `json:"primary"`
	Secondary  Color       `json:"secondary"`
	Background Color       `json:"background"`
	Text       Color       `json:"text"`
	Accent     Color       `json:"accent"`
	HeaderFont string      `json:"headerFont"`
	BodyFont   string      `json:"bodyFont"`
	Style      LayoutStyle `json:"layoutStyle"`
}

// themeTable 是主题到视觉参数的唯一来源。
var themeTable = map[deck.Theme]ThemeConfig{
	deck.ThemeModern: {
		Primary: hex("#2563EB"), Secondary: hex("#1E40AF"), Background: hex("#F8FAFC"),
		Text: hex("#1E293B"), Accent: hex("#60A5FA"),
		HeaderFont: FamilyHelvetica, BodyFont: FamilyHelvetica, Style: StyleBold,
	},
	deck.ThemeCorporate: {
		Primary: hex("#0F172A"), Secondary: hex("#334155"), Background: hex("#FFFFFF"),
		Text: hex("#333333"), Accent: hex("#CBD5E1"),
		HeaderFont: FamilyTimes, BodyFont: FamilyHelvetica, Style: StyleClean,
	},
	deck.ThemeCreative: {
		Primary: hex("#7C3AED"), Secondary: hex("#DB2777"), Background: hex("#FFF1F2"),
		Text: hex("#4C1D95"), Accent: hex("#F472B6"),
		HeaderFont: FamilyHelvetica, BodyFont: FamilyCourier, Style: StyleFramed,
	},
	deck.ThemeMinimal: {
		Primary: hex("#18181B"), Secondary: hex("#71717A"), Background: hex("#FFFFFF"),
		Text: hex("#27272A"), Accent: hex("#E4E4E7"),
		HeaderFont: FamilyHelvetica, BodyFont: FamilyHelvetica, Style: StyleClean,
	},
}

// ThemeFor 查表返回主题配置；未知主题使用 Minimal。
func ThemeFor(t deck.Theme) ThemeConfig {
	return themeTable[deck.ParseTheme(string(t))]
}

// Hex 将颜色格式化为 #RRGGBB。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor 解析 #RGB / #RRGGBB / #RRGGBBAA（忽略 alpha）。
func ParseColor(value string) (Color, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(value) {
	case 3:
		value = strings.Repeat(value[0:1], 2) + strings.Repeat(value[1:2], 2) + strings.Repeat(value[2:3], 2)
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	var out [3]int
	for i := range out {
		v, err := strconv.ParseUint(value[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		out[i] = int(v)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}

func hex(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
