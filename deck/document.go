package deck

import (
	"regexp"
	"strings"
)

// 该文件定义排版引擎的输入模型，字段名与内容生成服务输出的 JSON 保持一致。

// Theme 是文档的主题枚举，集合封闭。
type Theme string

const (
	ThemeModern    Theme = "Modern"
	ThemeMinimal   Theme = "Minimal"
	ThemeCorporate Theme = "Corporate"
	ThemeCreative  Theme = "Creative"
)

// Themes 按固定顺序列出全部主题。
var Themes = []Theme{ThemeModern, ThemeMinimal, ThemeCorporate, ThemeCreative}

// ParseTheme 忽略大小写解析主题名；无法识别时回落到 Minimal。
func ParseTheme(s string) Theme {
	for _, t := range Themes {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t
		}
	}
	return ThemeMinimal
}

// Document 是一份完整的演示文稿：标题、主题、可选封面图与有序幻灯片。
// 调用方持有所有权，交给排版引擎后不应再修改。
type Document struct {
	Title          string  `json:"topic" yaml:"topic"`
	Theme          Theme   `json:"theme" yaml:"theme"`
	CoverImage     Raster  `json:"coverImageBase64,omitempty" yaml:"coverImageBase64,omitempty"`
	CoverImagePath string  `json:"coverImagePath,omitempty" yaml:"coverImagePath,omitempty"`
	Slides         []Slide `json:"slides" yaml:"slides"`
}

// Slide 对应一张内容页。
type Slide struct {
	Title             string   `json:"title" yaml:"title"`
	Bullets           []string `json:"content" yaml:"content"`
	FooterNote        string   `json:"footerNote,omitempty" yaml:"footerNote,omitempty"`
	VisualDescription string   `json:"visualDescription,omitempty" yaml:"visualDescription,omitempty"`
	Image             Raster   `json:"imageBase64,omitempty" yaml:"imageBase64,omitempty"`
	ImagePath         string   `json:"imagePath,omitempty" yaml:"imagePath,omitempty"`
}

// HasImage 报告该页是否携带图片；带图页会为图片预留右半页。
func (s Slide) HasImage() bool { return len(s.Image) > 0 }

// Clone 返回深拷贝，图片字节共享（只读）。
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Slides = make([]Slide, len(d.Slides))
	for i, s := range d.Slides {
		s.Bullets = append([]string(nil), s.Bullets...)
		out.Slides[i] = s
	}
	return &out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName 由标题推导导出文件名：空白串替换为下划线，并追加固定后缀。
func FileName(title string) string {
	return whitespaceRun.ReplaceAllString(title, "_") + "_presentation.pdf"
}
