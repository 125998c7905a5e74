package layout

import (
	"time"

	"go.uber.org/zap"
)

// DefaultCaption 是封面标题下方的固定说明文字。
const DefaultCaption = "Created with SlideGenius AI"

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	Logger     *zap.Logger
	// GeneratedAt 为封面日期戳；零值时不输出日期，布局过程不读取系统时钟。
	GeneratedAt time.Time
	Caption     string
	Author      string // 写入 PDF 文档信息，可为空
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
// width 与 fontSize 均为 mm；width <= 0 表示不限宽。空文本应返回零行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64) ([]TextLine, error)
}

func (o BuildOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o BuildOptions) caption() string {
	if o.Caption == "" {
		return DefaultCaption
	}
	return o.Caption
}
