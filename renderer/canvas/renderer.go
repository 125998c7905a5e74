package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"go.uber.org/zap"

	"github.com/ByLCY/slidegenius/fonts"
	"github.com/ByLCY/slidegenius/layout"
	"github.com/ByLCY/slidegenius/renderer"
)

const defaultStrokeWidth = 0.2

// Renderer draws layout results via github.com/tdewolff/canvas and measures text with the
// same font faces, so wrapping decisions match what ends up in the PDF.
type Renderer struct {
	// font overrides keyed by "family-style", e.g. "times-bold"
	fontBlobs map[string][]byte
	log       *zap.Logger

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var (
	_ renderer.Renderer  = (*Renderer)(nil)
	_ renderer.Previewer = (*Renderer)(nil)
	_ layout.Typesetter  = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	Fonts  map[string]Resource // overrides for built-in faces, keyed by "family-style"
	Logger *zap.Logger
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer that uses only the built-in fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with font overrides and a logger.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs:    map[string][]byte{},
		log:          opts.Logger,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	for name, res := range opts.Fonts {
		key := normalizeFontKey(name)
		if key == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[key] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				r.log.Warn("读取字体文件失败，使用内置字体", zap.String("font", key), zap.String("path", res.Path), zap.Error(err))
				continue
			}
			r.fontBlobs[key] = data
		}
	}
	return r
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the result as a PDF, one PDF page per layout page.
func (r *Renderer) Write(w io.Writer, result *layout.Result) error {
	if result == nil {
		return fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return fmt.Errorf("缺少可渲染的页面")
	}

	writer := pdf.New(w, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c, err := r.drawCanvas(page)
		if err != nil {
			return fmt.Errorf("第 %d 页渲染失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

// PreviewPNG rasterizes a single page at dpmm dots per millimeter.
func (r *Renderer) PreviewPNG(w io.Writer, result *layout.Result, pageIndex int, dpmm float64) error {
	if result == nil || pageIndex < 0 || pageIndex >= len(result.Pages) {
		return fmt.Errorf("页面 %d 不存在", pageIndex)
	}
	if dpmm <= 0 {
		dpmm = 4
	}
	c, err := r.drawCanvas(result.Pages[pageIndex])
	if err != nil {
		return fmt.Errorf("第 %d 页渲染失败: %w", pageIndex+1, err)
	}
	img := rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace)
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：fontSize/width 入参均为毫米（mm）；创建字体面时换算为 pt。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize float64) ([]layout.TextLine, error) {
	if content == "" {
		return nil, nil
	}
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{})
	if err != nil {
		return nil, err
	}
	return greedyWrapTokens(content, width, face), nil
}

// drawCanvas 按固定顺序绘制一页：底层矩形、线、图片、遮罩、文字。
func (r *Renderer) drawCanvas(page layout.Page) (*canvas.Canvas, error) {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	r.drawRects(ctx, page.Rects)
	r.drawLines(ctx, page.Lines)
	r.drawImages(ctx, page.Images)
	r.drawRects(ctx, page.Overlays)
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	if len(tb.Lines) == 0 {
		return nil
	}
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(tb.Font, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	lineHeight := tb.LineHeight
	if lineHeight <= 0 {
		lineHeight = tb.FontSize
	}
	// 基线位置：行顶部加上字体上升部
	ascent := face.Metrics().Ascent
	cursorY := tb.Y
	for _, line := range tb.Lines {
		ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += lineHeight
	}
	return nil
}

// drawImages 逐张绘制图片；单张失败只记录告警，预留区域保持空白。
func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) {
	for _, img := range images {
		if err := r.drawImage(ctx, img); err != nil {
			r.log.Warn("图片绘制失败，已跳过", zap.String("image", img.Source), zap.Error(err))
		}
	}
}

func (r *Renderer) drawImage(ctx *canvas.Context, box layout.ImageBox) (err error) {
	if box.Image == nil {
		return fmt.Errorf("图片未解码")
	}
	if box.Width <= 0 || box.Height <= 0 {
		return fmt.Errorf("图片区域无效 %gx%g", box.Width, box.Height)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("canvas: %v", rec)
		}
	}()

	fitted := fitImage(box)
	dpmm := float64(fitted.Bounds().Dx()) / box.Width
	if dpmm <= 0 {
		return fmt.Errorf("图片尺寸无效")
	}
	ctx.DrawImage(box.X, box.Y, fitted, canvas.DPMM(dpmm))
	return nil
}

// fitImage 将图片裁剪/缩放到与目标区域一致的宽高比，像素宽度不超过原图。
func fitImage(box layout.ImageBox) image.Image {
	src := box.Image
	b := src.Bounds()
	pxW := b.Dx()
	pxH := int(math.Round(float64(pxW) * box.Height / box.Width))
	if pxH > b.Dy() {
		pxH = b.Dy()
		pxW = int(math.Round(float64(pxH) * box.Width / box.Height))
	}
	if pxW < 1 {
		pxW = 1
	}
	if pxH < 1 {
		pxH = 1
	}
	switch box.Fit {
	case "stretch":
		return imaging.Resize(src, pxW, pxH, imaging.Lanczos)
	case "contain":
		fitted := imaging.Fit(src, pxW, pxH, imaging.Lanczos)
		if fitted.Bounds().Dx() == pxW && fitted.Bounds().Dy() == pxH {
			return fitted
		}
		// 等比缩放后居中铺到与区域同比例的透明底图上
		return imaging.PasteCenter(imaging.New(pxW, pxH, color.Transparent), fitted)
	default:
		return imaging.Fill(src, pxW, pxH, imaging.Center, imaging.Lanczos)
	}
}

// drawLines 绘制直线列表（毫米单位）
func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultStrokeWidth
		}
		ctx.SetFillColor(color.RGBA{})
		ctx.SetStrokeColor(colorFromLayout(ln.Color, 1))
		ctx.SetStrokeWidth(w)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

// drawRects 绘制矩形；未指定填充或描边时对应部分透明
func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		if rc.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*rc.FillColor, rc.Opacity))
		} else {
			ctx.SetFillColor(color.RGBA{})
		}
		if rc.StrokeColor != nil {
			w := rc.StrokeWidth
			if w <= 0 {
				w = defaultStrokeWidth
			}
			ctx.SetStrokeColor(colorFromLayout(*rc.StrokeColor, rc.Opacity))
			ctx.SetStrokeWidth(w)
		} else {
			ctx.SetStrokeColor(color.RGBA{})
			ctx.SetStrokeWidth(0)
		}
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col, 1), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fonts.Key(font.Family, font.Style)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	family := canvas.NewFontFamily(key)
	if blob, ok := r.fontBlobs[key]; ok {
		err := family.LoadFont(blob, 0, style)
		if err == nil {
			r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
			return family, style, nil
		}
		r.log.Warn("自定义字体无法加载，使用内置字体", zap.String("font", key), zap.Error(err))
		family = canvas.NewFontFamily(key)
	}

	data, err := fonts.Load(font.Family, font.Style)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("加载字体 %s 失败: %w", key, err)
	}
	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func normalizeFontKey(name string) string {
	family, style, _ := strings.Cut(strings.TrimSpace(name), "-")
	if family == "" {
		return ""
	}
	return fonts.Key(family, style)
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	if strings.Contains(s, "bold") {
		result = canvas.FontBold
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

// colorFromLayout 生成预乘 alpha 的颜色；opacity 不在 (0,1) 内时视为不透明。
func colorFromLayout(c layout.Color, opacity float64) color.RGBA {
	a := opacity
	if a <= 0 || a > 1 {
		a = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R)*a + 0.5),
		G: uint8(float64(c.G)*a + 0.5),
		B: uint8(float64(c.B)*a + 0.5),
		A: uint8(255*a + 0.5),
	}
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// greedyWrapTokens 优先在空白处分割，单个词超过限制时在词内拆分；显式换行始终生效。
// 所有宽度单位均为 mm，limit <= 0 表示不限宽。
func greedyWrapTokens(content string, width float64, face *canvas.FontFace) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	tokens := tokenizeContent(content)
	var lines []layout.TextLine
	var builder strings.Builder
	currentWidth := 0.0

	emit := func() {
		lineStr := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
		lines = append(lines, layout.TextLine{
			Content: lineStr,
			Width:   face.TextWidth(lineStr),
		})
		builder.Reset()
		currentWidth = 0
	}

	appendToken := func(token string, tokenWidth float64) {
		builder.WriteString(token)
		currentWidth += tokenWidth
	}

	for _, token := range tokens {
		if token == "\n" {
			emit()
			continue
		}
		isSpace := strings.TrimSpace(token) == ""
		if isSpace && builder.Len() == 0 {
			// 折行后的行首空白丢弃
			continue
		}

		tokenWidth := face.TextWidth(token)
		if currentWidth > 0 && currentWidth+tokenWidth > limit {
			if isSpace {
				// 行尾空白不计入宽度，留给下一个词决定是否换行
				appendToken(token, tokenWidth)
				continue
			}
			emit()
		}
		if tokenWidth <= limit {
			appendToken(token, tokenWidth)
			continue
		}

		for _, chunk := range splitTokenByWidth(token, limit, face) {
			chunkWidth := face.TextWidth(chunk)
			if currentWidth > 0 && currentWidth+chunkWidth > limit {
				emit()
			}
			appendToken(chunk, chunkWidth)
		}
	}
	if builder.Len() > 0 || len(lines) > 0 && strings.HasSuffix(content, "\n") {
		emit()
	}
	return lines
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var current []rune
	for _, r := range token {
		current = append(current, r)
		if len(current) > 1 && face.TextWidth(string(current)) > limit {
			parts = append(parts, string(current[:len(current)-1]))
			current = []rune{r}
		}
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}
