package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// builtin 以 "family-style" 为键保存内置字体数据。
// helvetica 对应 Go 字体，courier 对应 Go Mono，times 对应 Latin Modern Roman。
var builtin = map[string][]byte{
	"helvetica-regular": goregular.TTF,
	"helvetica-bold":    gobold.TTF,
	"helvetica-italic":  goitalic.TTF,
	"courier-regular":   gomono.TTF,
	"courier-bold":      gomonobold.TTF,
	"courier-italic":    gomonoitalic.TTF,
	"times-regular":     lmroman10regular.TTF,
	"times-bold":        lmroman10bold.TTF,
	"times-italic":      lmroman10italic.TTF,
}

// Key 组合家族与样式，空样式视为 regular。
func Key(family, style string) string {
	family = strings.ToLower(strings.TrimSpace(family))
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		style = "regular"
	}
	return family + "-" + style
}

// Load 返回内置字体数据；未知样式回落到同家族 regular。
func Load(family, style string) ([]byte, error) {
	if data, ok := builtin[Key(family, style)]; ok {
		return data, nil
	}
	if data, ok := builtin[Key(family, "")]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("没有内置字体 %s", Key(family, style))
}

// Names 按字典序列出全部内置字体键。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
