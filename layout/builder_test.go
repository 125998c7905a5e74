package layout

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/slidegenius/deck"
)

// stubTypesetter 是一个最小实现，仅用于测试：每个字符宽 fontSize/2，按空格贪心折行。
type stubTypesetter struct{}

func (s *stubTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize float64) ([]TextLine, error) {
	if content == "" {
		return nil, nil
	}
	charW := fontSize * 0.5
	measure := func(s string) float64 { return float64(utf8.RuneCountInString(s)) * charW }

	var lines []TextLine
	cur := ""
	for _, word := range strings.Fields(content) {
		cand := word
		if cur != "" {
			cand = cur + " " + word
		}
		if cur != "" && width > 0 && measure(cand) > width {
			lines = append(lines, TextLine{Content: cur, Width: measure(cur)})
			cur = word
			continue
		}
		cur = cand
	}
	if cur != "" {
		lines = append(lines, TextLine{Content: cur, Width: measure(cur)})
	}
	return lines, nil
}

type failingTypesetter struct{}

func (failingTypesetter) LayoutLines(string, float64, FontResource, float64) ([]TextLine, error) {
	return nil, errors.New("font missing")
}

func build(t *testing.T, doc *deck.Document, opts BuildOptions) *Result {
	t.Helper()
	if opts.Typesetter == nil {
		opts.Typesetter = &stubTypesetter{}
	}
	res, err := Build(doc, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func pngRaster(t *testing.T) deck.Raster {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		img.Set(x, 3, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func q1Review() *deck.Document {
	return &deck.Document{
		Title: "Q1 Review",
		Theme: deck.ThemeModern,
		Slides: []deck.Slide{{
			Title:      "Revenue",
			Bullets:    []string{"Up 12%", "New markets"},
			FooterNote: "Source: Finance",
		}},
	}
}

func eq(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestScenarioQ1Review(t *testing.T) {
	res := build(t, q1Review(), BuildOptions{})
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	p := res.Pages[1]
	if p.Kind != PageContent || p.Number != 1 {
		t.Fatalf("第二页应为第 1 张内容页: %+v", p.Kind)
	}

	titles := p.TextsByRole(RoleTitle)
	if len(titles) != 1 || titles[0].Content != "Revenue" {
		t.Fatalf("标题错误: %#v", titles)
	}
	if len(p.Lines) != 1 || !eq(p.Lines[0].Y1, separatorY) {
		t.Fatalf("缺少分隔线: %#v", p.Lines)
	}

	bullets := p.TextsByRole(RoleBullet)
	want := []string{"• Up 12%", "• New markets"}
	if len(bullets) != len(want) {
		t.Fatalf("要点数量错误: got=%d want=%d", len(bullets), len(want))
	}
	for i, tb := range bullets {
		if tb.Content != want[i] || len(tb.Lines) != 1 {
			t.Fatalf("第 %d 条要点错误: %#v", i, tb)
		}
	}

	footers := p.TextsByRole(RoleFooter)
	if len(footers) != 1 || footers[0].Content != "Source: Finance" {
		t.Fatalf("页脚备注错误: %#v", footers)
	}
	if footers[0].X > PageWidth/4 || footers[0].Y < PageHeight-bottomMargin {
		t.Fatalf("页脚备注应位于左下角: x=%g y=%g", footers[0].X, footers[0].Y)
	}

	numbers := p.TextsByRole(RolePageNumber)
	if len(numbers) != 1 || numbers[0].Content != "1" || numbers[0].Align != "right" {
		t.Fatalf("页码错误: %#v", numbers)
	}
	if right := numbers[0].X + numbers[0].Width; !eq(right, PageWidth-footerInset) {
		t.Fatalf("页码右边界错误: %g", right)
	}

	if len(p.Images) != 0 {
		t.Fatalf("无图页不应有图片: %d", len(p.Images))
	}
	if !eq(p.ContentWidth, PageWidth-2*contentMargin) {
		t.Fatalf("无图页文本栏宽度错误: %g", p.ContentWidth)
	}
	// 背景 + bold 侧栏，没有图片底框
	if len(p.Rects) != 2 {
		t.Fatalf("矩形数量错误: %d", len(p.Rects))
	}
	if res.FileName != "Q1_Review_presentation.pdf" {
		t.Fatalf("文件名错误: %s", res.FileName)
	}
}

func TestPageCountAndNumbering(t *testing.T) {
	for _, theme := range deck.Themes {
		for n := 0; n <= 5; n++ {
			doc := &deck.Document{Title: "Deck", Theme: theme}
			for i := 0; i < n; i++ {
				s := deck.Slide{Title: "S" + strconv.Itoa(i), Bullets: []string{"a"}}
				if i%2 == 1 {
					s.Image = pngRaster(t)
				}
				doc.Slides = append(doc.Slides, s)
			}
			res := build(t, doc, BuildOptions{})
			if len(res.Pages) != n+1 {
				t.Fatalf("%s/%d: 期望 %d 页，实际 %d", theme, n, n+1, len(res.Pages))
			}
			cover := res.Pages[0]
			if cover.Kind != PageCover || cover.Number != 0 || len(cover.TextsByRole(RolePageNumber)) != 0 {
				t.Fatalf("%s/%d: 封面不应有页码", theme, n)
			}
			for i := 1; i <= n; i++ {
				p := res.Pages[i]
				nums := p.TextsByRole(RolePageNumber)
				if p.Number != i || len(nums) != 1 || nums[0].Content != strconv.Itoa(i) {
					t.Fatalf("%s/%d: 第 %d 页页码错误: %d %#v", theme, n, i, p.Number, nums)
				}
				if p.TextsByRole(RoleTitle)[0].Content != doc.Slides[i-1].Title {
					t.Fatalf("%s/%d: 页面顺序与幻灯片顺序不一致", theme, n)
				}
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	doc := q1Review()
	doc.CoverImage = pngRaster(t)
	doc.Slides = append(doc.Slides, deck.Slide{
		Title:   "Outlook",
		Bullets: []string{strings.Repeat("growth ", 40), "stable"},
		Image:   pngRaster(t),
	})
	opts := BuildOptions{GeneratedAt: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	first := build(t, doc, opts)
	second := build(t, doc, opts)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("两次布局结果不一致 (-first +second):\n%s", diff)
	}
}

func TestOverflowDropsTrailingBullets(t *testing.T) {
	var bullets []string
	for i := 0; i < 20; i++ {
		bullets = append(bullets, "point "+strconv.Itoa(i))
	}
	doc := &deck.Document{Title: "Long", Slides: []deck.Slide{{Title: "Many", Bullets: bullets}}}
	p := build(t, doc, BuildOptions{}).Pages[1]

	drawn := p.TextsByRole(RoleBullet)
	// 单行要点占 7mm + 4mm 间距，可用高度 150mm：恰好放下 14 条
	if len(drawn) != 14 || p.OmittedBullets != 6 {
		t.Fatalf("溢出处理错误: drawn=%d omitted=%d", len(drawn), p.OmittedBullets)
	}
	for i, tb := range drawn {
		if tb.Bottom() > PageHeight-bottomMargin+1e-9 {
			t.Fatalf("第 %d 条要点越过下边距: %g", i, tb.Bottom())
		}
		if tb.Content != "• "+bullets[i] {
			t.Fatalf("第 %d 条要点内容错误: %q", i, tb.Content)
		}
	}
}

func TestOverflowSkipsShorterFollowers(t *testing.T) {
	var bullets []string
	for i := 0; i < 13; i++ {
		bullets = append(bullets, "fits")
	}
	// 第 14 条折成两行会越界；其后的单行要点本可放下，但也必须省略
	bullets = append(bullets, strings.Repeat("word ", 30), "short")
	doc := &deck.Document{Title: "T", Slides: []deck.Slide{{Title: "S", Bullets: bullets}}}
	p := build(t, doc, BuildOptions{}).Pages[1]

	if got := len(p.TextsByRole(RoleBullet)); got != 13 {
		t.Fatalf("应绘制 13 条要点，实际 %d", got)
	}
	if p.OmittedBullets != 2 {
		t.Fatalf("应省略 2 条要点，实际 %d", p.OmittedBullets)
	}
}

func TestContentWidthSwitchesOnImage(t *testing.T) {
	doc := &deck.Document{Title: "T", Theme: deck.ThemeCorporate, Slides: []deck.Slide{
		{Title: "with", Bullets: []string{"x"}, Image: pngRaster(t)},
		{Title: "without", Bullets: []string{"x"}},
	}}
	res := build(t, doc, BuildOptions{})

	with := res.Pages[1]
	if !eq(with.ContentWidth, PageWidth/2-contentMargin) {
		t.Fatalf("带图页文本栏宽度错误: %g", with.ContentWidth)
	}
	if len(with.Images) != 1 || with.Images[0].Image == nil {
		t.Fatalf("带图页缺少图片")
	}
	img := with.Images[0]
	if !eq(img.X, PageWidth/2+10) || !eq(img.Width, PageWidth/2-30) || !eq(img.Height, imageHeight) {
		t.Fatalf("图片区域错误: %+v", img)
	}
	if b := with.TextsByRole(RoleBullet)[0]; !eq(b.Width, PageWidth/2-contentMargin) {
		t.Fatalf("要点宽度应等于文本栏宽度: %g", b.Width)
	}

	without := res.Pages[2]
	if !eq(without.ContentWidth, PageWidth-2*contentMargin) {
		t.Fatalf("无图页文本栏宽度错误: %g", without.ContentWidth)
	}
}

func TestBrokenImageIsLoggedAndSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	doc := &deck.Document{
		Title:      "T",
		CoverImage: deck.Raster("not a png"),
		Slides:     []deck.Slide{{Title: "S", Bullets: []string{"x"}, Image: deck.Raster("garbage")}},
	}
	res := build(t, doc, BuildOptions{Logger: zap.New(core)})

	if got := logs.FilterMessage("图片无法解码，已跳过").Len(); got != 2 {
		t.Fatalf("期望 2 条告警，实际 %d", got)
	}
	cover := res.Pages[0]
	if len(cover.Images) != 0 || len(cover.Overlays) != 0 {
		t.Fatalf("封面图解码失败时不应绘制图片与遮罩")
	}
	p := res.Pages[1]
	if len(p.Images) != 0 {
		t.Fatalf("坏图不应进入页面")
	}
	// 预留区域保持空白：文本栏仍为半宽，底框仍在
	if !eq(p.ContentWidth, PageWidth/2-contentMargin) {
		t.Fatalf("坏图仍应保留右半页: %g", p.ContentWidth)
	}
	accent := ThemeFor(doc.Theme).Accent
	found := false
	for _, rc := range p.Rects {
		if rc.FillColor != nil && *rc.FillColor == accent {
			found = true
		}
	}
	if !found {
		t.Fatalf("缺少图片底框")
	}
}

func TestCoverPage(t *testing.T) {
	doc := &deck.Document{
		Title:      strings.Repeat("Quarterly ", 12),
		Theme:      deck.ThemeCreative,
		CoverImage: pngRaster(t),
	}
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	res := build(t, doc, BuildOptions{GeneratedAt: at, Caption: "Made here"})
	if len(res.Pages) != 1 {
		t.Fatalf("无幻灯片时只应有封面，实际 %d 页", len(res.Pages))
	}
	cover := res.Pages[0]

	if len(cover.Images) != 1 || cover.Images[0].Fit != "cover" || !eq(cover.Images[0].Width, PageWidth) {
		t.Fatalf("封面图应铺满页面: %+v", cover.Images)
	}
	if len(cover.Overlays) != 1 || !eq(cover.Overlays[0].Opacity, 0.5) || *cover.Overlays[0].FillColor != (Color{}) {
		t.Fatalf("封面遮罩错误: %+v", cover.Overlays)
	}

	title := cover.TextsByRole(RoleCoverTitle)
	if len(title) != 1 || len(title[0].Lines) < 3 || title[0].Align != "center" {
		t.Fatalf("封面标题应居中折行: %#v", title)
	}
	if !eq(title[0].Width, PageWidth-2*coverMargin) {
		t.Fatalf("封面标题宽度错误: %g", title[0].Width)
	}
	caption := cover.TextsByRole(RoleCaption)
	if len(caption) != 1 || caption[0].Content != "Made here" {
		t.Fatalf("说明文字错误: %#v", caption)
	}
	if title[0].Bottom() > caption[0].Y {
		t.Fatalf("标题压住说明文字: %g > %g", title[0].Bottom(), caption[0].Y)
	}
	date := cover.TextsByRole(RoleDate)
	if len(date) != 1 || date[0].Content != "10/19/2026" {
		t.Fatalf("日期戳错误: %#v", date)
	}
}

func TestCoverTitleStaysBelowTopMargin(t *testing.T) {
	doc := &deck.Document{Title: strings.Repeat("Quarterly ", 40), Theme: deck.ThemeModern}
	res := build(t, doc, BuildOptions{})
	title := res.Pages[0].TextsByRole(RoleCoverTitle)
	if len(title) != 1 {
		t.Fatalf("封面标题缺失: %#v", title)
	}
	if captionTop := PageHeight/2 + 20; title[0].Height <= captionTop-5-coverMargin {
		t.Fatalf("标题不够长，无法覆盖上移越界的情况: 高度 %g", title[0].Height)
	}
	if !eq(title[0].Y, coverMargin) {
		t.Fatalf("超长标题应停在上边距 %g，实际 %g", coverMargin, title[0].Y)
	}
}

func TestDocumentMeta(t *testing.T) {
	res := build(t, q1Review(), BuildOptions{Author: "Finance Team", Caption: "Made here"})
	m := res.Meta
	if m.Title != "Q1 Review" || m.Author != "Finance Team" || m.Creator != "Made here" {
		t.Fatalf("文档信息错误: %+v", m)
	}
	if m.Subject != "Modern presentation" || len(m.Keywords) != 1 || m.Keywords[0] != "Revenue" {
		t.Fatalf("主题或关键词错误: %+v", m)
	}
}

func TestEmptyDocumentIsBestEffort(t *testing.T) {
	res := build(t, &deck.Document{}, BuildOptions{})
	if len(res.Pages) != 1 {
		t.Fatalf("空文档应只有封面")
	}
	cover := res.Pages[0]
	if len(cover.TextsByRole(RoleCoverTitle)) != 0 {
		t.Fatalf("空标题不应生成文本")
	}
	if len(cover.TextsByRole(RoleDate)) != 0 {
		t.Fatalf("未提供 GeneratedAt 时不应输出日期")
	}
	if cover.TextsByRole(RoleCaption)[0].Content != DefaultCaption {
		t.Fatalf("默认说明文字错误")
	}
}

func TestLayoutStyleDecorations(t *testing.T) {
	cases := []struct {
		theme  deck.Theme
		rects  int
		titleX float64
	}{
		{deck.ThemeModern, 2, titleXBold},
		{deck.ThemeCreative, 2, titleX},
		{deck.ThemeCorporate, 1, titleX},
		{deck.ThemeMinimal, 1, titleX},
	}
	for _, tc := range cases {
		doc := &deck.Document{Title: "T", Theme: tc.theme, Slides: []deck.Slide{{Title: "S", Bullets: []string{"x"}}}}
		p := build(t, doc, BuildOptions{}).Pages[1]
		if len(p.Rects) != tc.rects {
			t.Fatalf("%s: 矩形数量 got=%d want=%d", tc.theme, len(p.Rects), tc.rects)
		}
		if got := p.TextsByRole(RoleTitle)[0].X; !eq(got, tc.titleX) {
			t.Fatalf("%s: 标题 x got=%g want=%g", tc.theme, got, tc.titleX)
		}
		if got := p.TextsByRole(RoleBullet)[0].X; !eq(got, tc.titleX) {
			t.Fatalf("%s: 要点 x got=%g want=%g", tc.theme, got, tc.titleX)
		}
		if tc.theme == deck.ThemeCreative {
			frame := p.Rects[1]
			if frame.StrokeColor == nil || frame.FillColor != nil || !eq(frame.X, frameInset) {
				t.Fatalf("framed 边框错误: %+v", frame)
			}
		}
	}
}

func TestBuildRequiresInputs(t *testing.T) {
	if _, err := Build(nil, BuildOptions{Typesetter: &stubTypesetter{}}); err == nil {
		t.Fatalf("nil 文档应返回错误")
	}
	if _, err := Build(q1Review(), BuildOptions{}); err == nil {
		t.Fatalf("缺少 Typesetter 应返回错误")
	}
	if _, err := Build(q1Review(), BuildOptions{Typesetter: failingTypesetter{}}); err == nil {
		t.Fatalf("排版后端错误应向上返回")
	}
}

func TestWriteDebugJSONOmitsPixels(t *testing.T) {
	doc := q1Review()
	doc.Slides[0].Image = pngRaster(t)
	res := build(t, doc, BuildOptions{})
	var buf bytes.Buffer
	if err := WriteDebugJSON(&buf, res); err != nil {
		t.Fatalf("WriteDebugJSON: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"source": "slide-1"`) || strings.Contains(out, "Pix") {
		t.Fatalf("调试 JSON 内容异常:\n%s", out)
	}
}
