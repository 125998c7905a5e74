package renderer

import (
	"io"

	"github.com/ByLCY/slidegenius/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回完整的二进制数据；Write 直接写入输出流。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
	Write(w io.Writer, result *layout.Result) error
}

// Previewer 将单个页面栅格化为 PNG，用于界面预览。
type Previewer interface {
	PreviewPNG(w io.Writer, result *layout.Result, pageIndex int, dpmm float64) error
}
