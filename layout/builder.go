package layout

import (
	"fmt"
	"image"
	"strconv"

	"go.uber.org/zap"

	"github.com/ByLCY/slidegenius/deck"
)

// 文本块角色，便于渲染调试与测试定位。
const (
	RoleCoverTitle = "cover-title"
	RoleCaption    = "caption"
	RoleDate       = "date"
	RoleTitle      = "title"
	RoleBullet     = "bullet"
	RoleFooter     = "footer"
	RolePageNumber = "page-number"
)

// Build 根据文档生成一张封面与逐张幻灯片对应的内容页。
// 结果只取决于 doc、opts 与主题表；图片解码失败只记录告警，不会中断排版。
func Build(doc *deck.Document, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}

	b := &builder{
		doc:   doc,
		theme: ThemeFor(doc.Theme),
		ts:    opts.Typesetter,
		log:   opts.logger().With(zap.String("document", doc.Title)),
		opts:  opts,
	}

	pages := make([]Page, 0, len(doc.Slides)+1)
	cover, err := b.coverPage()
	if err != nil {
		return nil, fmt.Errorf("封面排版失败: %w", err)
	}
	pages = append(pages, cover)

	for i, slide := range doc.Slides {
		page, err := b.contentPage(i, slide)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页排版失败: %w", i+1, err)
		}
		pages = append(pages, page)
	}

	return &Result{
		Pages:    pages,
		Meta:     collectMeta(doc, opts),
		FileName: deck.FileName(doc.Title),
	}, nil
}

type builder struct {
	doc   *deck.Document
	theme ThemeConfig
	ts    Typesetter
	log   *zap.Logger
	opts  BuildOptions
}

func (b *builder) coverPage() (Page, error) {
	p := newPage(PageCover, 0)
	p.Rects = append(p.Rects, fillRect(0, 0, PageWidth, PageHeight, b.theme.Primary))

	if img := b.decode(b.doc.CoverImage, zap.String("image", "cover")); img != nil {
		p.Images = append(p.Images, ImageBox{
			Source: "cover",
			Width:  PageWidth,
			Height: PageHeight,
			Fit:    "cover",
			Image:  img,
		})
		black := Color{}
		p.Overlays = append(p.Overlays, Rect{
			Width:     PageWidth,
			Height:    PageHeight,
			FillColor: &black,
			Opacity:   scrimOpacity,
		})
	}

	white := Color{R: 255, G: 255, B: 255}
	captionTop := PageHeight/2 + 20
	title, err := b.text(RoleCoverTitle, b.doc.Title, coverMargin, 0, PageWidth-2*coverMargin,
		FontResource{Family: b.theme.HeaderFont, Style: FontBold}, coverTitleSize, coverTitleSize*lineHeightRatio, white, "center", true)
	if err != nil {
		return p, err
	}
	if len(title.Lines) > 0 {
		// 多行标题整体上移，避免压住说明文字；最多移到上边距
		title.Y = PageHeight/2 - 20
		if limit := captionTop - 5; title.Bottom() > limit {
			title.Y = max(coverMargin, limit-title.Height)
		}
		p.Texts = append(p.Texts, title)
	}

	small := FontResource{Family: b.theme.BodyFont, Style: FontRegular}
	caption, err := b.text(RoleCaption, b.opts.caption(), 0, captionTop, PageWidth,
		small, coverSmallSize, coverSmallSize*lineHeightRatio, white, "center", false)
	if err != nil {
		return p, err
	}
	p.Texts = append(p.Texts, caption)

	if !b.opts.GeneratedAt.IsZero() {
		date, err := b.text(RoleDate, b.opts.GeneratedAt.Format(dateLayout), 0, captionTop+10, PageWidth,
			small, coverSmallSize, coverSmallSize*lineHeightRatio, white, "center", false)
		if err != nil {
			return p, err
		}
		p.Texts = append(p.Texts, date)
	}
	return p, nil
}

func (b *builder) contentPage(index int, slide deck.Slide) (Page, error) {
	th := b.theme
	p := newPage(PageContent, index+1)
	log := b.log.With(zap.Int("page", p.Number))

	// 1. 背景  2. 版式装饰
	p.Rects = append(p.Rects, fillRect(0, 0, PageWidth, PageHeight, th.Background))
	switch th.Style {
	case StyleBold:
		p.Rects = append(p.Rects, fillRect(0, 0, sidebarWidth, PageHeight, th.Primary))
	case StyleFramed:
		p.Rects = append(p.Rects, strokeRect(frameInset, frameInset, PageWidth-2*frameInset, PageHeight-2*frameInset, th.Primary, frameStroke))
	}

	// 3. 标题与分隔线；bold 侧栏存在时整体右移
	x := titleX
	if th.Style == StyleBold {
		x = titleXBold
	}
	title, err := b.text(RoleTitle, slide.Title, x, titleTop, PageWidth-contentMargin-x,
		FontResource{Family: th.HeaderFont, Style: FontBold}, slideTitleSize, slideTitleSize*lineHeightRatio, th.Primary, "", false)
	if err != nil {
		return p, err
	}
	if len(title.Lines) > 0 {
		p.Texts = append(p.Texts, title)
	}
	p.Lines = append(p.Lines, Line{
		X1: x, Y1: separatorY, X2: PageWidth - contentMargin, Y2: separatorY,
		Color: th.Secondary, Width: separatorStroke,
	})

	// 4. 文本栏宽度：带图时右半页留给图片
	contentWidth := PageWidth - 2*contentMargin
	if slide.HasImage() {
		contentWidth = PageWidth/2 - contentMargin
		box := ImageBox{
			Source: "slide-" + strconv.Itoa(p.Number),
			X:      PageWidth/2 + 10,
			Y:      imageTop,
			Width:  PageWidth/2 - 30,
			Height: imageHeight,
			Fit:    "cover",
		}
		p.Rects = append(p.Rects, fillRect(box.X-imagePad, box.Y-imagePad, box.Width+2*imagePad, box.Height+2*imagePad, th.Accent))
		if img := b.decode(slide.Image, zap.Int("page", p.Number)); img != nil {
			box.Image = img
			p.Images = append(p.Images, box)
		}
	}
	p.ContentWidth = contentWidth

	// 5. 要点：越过下边距的要点及其后所有要点整体省略
	body := FontResource{Family: th.BodyFont, Style: FontRegular}
	cursorY := bulletTop
	limit := PageHeight - bottomMargin
	for i, bullet := range slide.Bullets {
		tb, err := b.text(RoleBullet, bulletMarker+bullet, x, cursorY, contentWidth, body, bodySize, bulletLineH, th.Text, "", true)
		if err != nil {
			return p, err
		}
		if cursorY+tb.Height > limit {
			p.OmittedBullets = len(slide.Bullets) - i
			log.Debug("要点超出下边距，已省略", zap.Int("omitted", p.OmittedBullets))
			break
		}
		p.Texts = append(p.Texts, tb)
		cursorY += tb.Height + bulletSpacing
	}

	// 6. 页脚备注  7. 页码
	bottomY := PageHeight - footerInset - smallSize
	if slide.FooterNote != "" {
		footer, err := b.text(RoleFooter, slide.FooterNote, x, bottomY, contentWidth,
			FontResource{Family: th.BodyFont, Style: FontItalic}, smallSize, smallSize*lineHeightRatio, th.Secondary, "", false)
		if err != nil {
			return p, err
		}
		p.Texts = append(p.Texts, footer)
	}
	const numberBox = 30.0
	number, err := b.text(RolePageNumber, strconv.Itoa(p.Number), PageWidth-footerInset-numberBox, bottomY, numberBox,
		body, smallSize, smallSize*lineHeightRatio, th.Secondary, "right", false)
	if err != nil {
		return p, err
	}
	p.Texts = append(p.Texts, number)
	return p, nil
}

// text 通过 Typesetter 生成文本块；wrap 为 false 时不限宽，内容按一行绘制。
func (b *builder) text(role, content string, x, y, width float64, font FontResource, size, lineHeight float64, col Color, align string, wrap bool) (TextBox, error) {
	tb := TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       font,
		FontSize:   size,
		Color:      col,
		Align:      align,
		Role:       role,
	}
	if content == "" {
		return tb, nil
	}
	limit := width
	if !wrap {
		limit = 0
	}
	lines, err := b.ts.LayoutLines(content, limit, font, size)
	if err != nil {
		return tb, fmt.Errorf("%s 文本排版失败: %w", role, err)
	}
	tb.Lines = lines
	tb.Height = float64(len(lines)) * lineHeight
	return tb, nil
}

func (b *builder) decode(r deck.Raster, fields ...zap.Field) image.Image {
	if len(r) == 0 {
		return nil
	}
	img, err := r.Decode()
	if err != nil {
		b.log.Warn("图片无法解码，已跳过", append(fields, zap.Error(err))...)
		return nil
	}
	return img
}

func newPage(kind PageKind, number int) Page {
	return Page{Kind: kind, Number: number, Width: PageWidth, Height: PageHeight}
}

func fillRect(x, y, w, h float64, c Color) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h, FillColor: &c}
}

func strokeRect(x, y, w, h float64, c Color, width float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h, StrokeColor: &c, StrokeWidth: width}
}

func collectMeta(doc *deck.Document, opts BuildOptions) DocumentMeta {
	keywords := make([]string, 0, len(doc.Slides))
	for _, s := range doc.Slides {
		if s.Title != "" {
			keywords = append(keywords, s.Title)
		}
	}
	return DocumentMeta{
		Title:    doc.Title,
		Author:   opts.Author,
		Subject:  string(deck.ParseTheme(string(doc.Theme))) + " presentation",
		Creator:  opts.caption(),
		Keywords: keywords,
	}
}
