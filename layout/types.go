package layout

import "image"

// 该文件定义布局结果，供布局计算、渲染与调试 JSON 共用。坐标单位均为 mm，原点在页面左上角。

// Result 保存布局后的页面与文档元信息。
type Result struct {
	Pages    []Page       `json:"pages"`
	Meta     DocumentMeta `json:"meta"`
	FileName string       `json:"fileName"`
}

// PageKind 区分封面与内容页。
type PageKind string

const (
	PageCover   PageKind = "cover"
	PageContent PageKind = "content"
)

// Page 记录页面尺寸与可直接渲染的元素。
// 渲染顺序固定：Rects → Lines → Images → Overlays → Texts。
type Page struct {
	Kind   PageKind `json:"kind"`
	Number int      `json:"number"` // 内容页从 1 开始；封面为 0
	Width  float64  `json:"width"`
	Height float64  `json:"height"`

	Rects    []Rect     `json:"rects,omitempty"`
	Lines    []Line     `json:"lines,omitempty"`
	Images   []ImageBox `json:"images,omitempty"`
	Overlays []Rect     `json:"overlays,omitempty"` // 盖在图片上方、文字下方，例如封面遮罩
	Texts    []TextBox  `json:"texts,omitempty"`

	// ContentWidth 是要点文本栏的宽度；封面为 0。
	ContentWidth float64 `json:"contentWidth,omitempty"`
	// OmittedBullets 记录因越过下边距而被整条省略的要点数量。
	OmittedBullets int `json:"omittedBullets,omitempty"`
}

// FontResource 描述逻辑字体：家族（helvetica/times/courier）与样式（regular/bold/italic）。
type FontResource struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// TextBox 表示一个已经排好坐标的文本块，Y 为首行顶部。
type TextBox struct {
	Content    string       `json:"content"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Width      float64      `json:"width"`
	LineHeight float64      `json:"lineHeight"`
	Font       FontResource `json:"font"`
	FontSize   float64      `json:"fontSize"` // mm
	Color      Color        `json:"color"`
	Lines      []TextLine   `json:"lines"`
	Height     float64      `json:"height"`
	Align      string       `json:"align,omitempty"` // left（默认）/center/right
	Role       string       `json:"role,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽度。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
}

// ImageBox 描述图片位置与尺寸；Image 为已解码的图片，不参与 JSON 输出。
type ImageBox struct {
	Source string      `json:"source"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Fit    string      `json:"fit"` // cover/contain/stretch
	Image  image.Image `json:"-"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"`
}

// Rect 表示一个矩形。FillColor/StrokeColor 为空表示不填充/不描边。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FillColor   *Color  `json:"fillColor,omitempty"`
	StrokeColor *Color  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity"` // 0 视为不透明
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Bottom 返回文本块底边的纵坐标。
func (tb TextBox) Bottom() float64 { return tb.Y + tb.Height }

// TextsByRole 返回页面上指定角色的文本块。
func (p Page) TextsByRole(role string) []TextBox {
	var out []TextBox
	for _, tb := range p.Texts {
		if tb.Role == role {
			out = append(out, tb)
		}
	}
	return out
}
