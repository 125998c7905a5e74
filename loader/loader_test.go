package loader

import (
	"encoding/base64"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/slidegenius/deck"
	"github.com/ByLCY/slidegenius/layout"
	canvasrenderer "github.com/ByLCY/slidegenius/renderer/canvas"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	img := base64.StdEncoding.EncodeToString([]byte("fake-image"))
	p := writeFile(t, dir, "deck.json", `{
  "topic": "Q1 Review",
  "theme": "Modern",
  "slides": [
    {"title": "Revenue", "content": ["Up 12%", "New markets"], "footerNote": "Source: Finance",
     "visualDescription": "bar chart", "imageBase64": "data:image/png;base64,`+img+`"}
  ]
}`)

	doc, err := Load(p, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Title != "Q1 Review" || doc.Theme != deck.ThemeModern || len(doc.Slides) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	s := doc.Slides[0]
	if len(s.Bullets) != 2 || s.FooterNote != "Source: Finance" || string(s.Image) != "fake-image" {
		t.Fatalf("unexpected slide %+v", s)
	}
}

func TestLoadYAMLResolvesRelativeImages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assets/cover.png", "cover-bytes")
	writeFile(t, dir, "assets/chart.png", "chart-bytes")
	p := writeFile(t, dir, "deck.yaml", `
topic: Roadmap
theme: creative
coverImagePath: assets/cover.png
slides:
  - title: Plan
    content:
      - Ship v2
    imagePath: assets/chart.png
  - title: Risks
    content: []
`)

	doc, err := Load(p, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Theme != deck.ThemeCreative {
		t.Fatalf("unexpected theme %q", doc.Theme)
	}
	if string(doc.CoverImage) != "cover-bytes" || string(doc.Slides[0].Image) != "chart-bytes" {
		t.Fatalf("images were not resolved: cover=%q slide=%q", doc.CoverImage, doc.Slides[0].Image)
	}
	if doc.Slides[1].HasImage() {
		t.Fatalf("second slide should have no image")
	}
}

func TestLoadDeckWithMissingImage(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "talk.deck", `deck "Talk" {
  theme: Corporate
  slide "Intro" {
    bullet "Hello"
    image: "missing.png"
  }
}`)
	core, logs := observer.New(zap.WarnLevel)

	doc, err := Load(p, zap.New(core))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Theme != deck.ThemeCorporate || len(doc.Slides) != 1 || doc.Slides[0].Bullets[0] != "Hello" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Slides[0].HasImage() {
		t.Fatalf("missing image should be left empty")
	}
	if logs.FilterMessage("图片文件读取失败，已忽略").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	_, err := Decode("slides.txt", []byte("hello"))
	if err == nil || !strings.Contains(err.Error(), ".txt") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if _, err := Decode("bad.json", []byte(`{"slides": [{"imageBase64": 42}]}`)); err == nil {
		t.Fatalf("expected error for non-string image field")
	}
}

func TestBadBase64ImageIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "d.json", `{"topic":"T","theme":"Modern","slides":[
  {"title":"S","content":["a"],"imageBase64":"not*valid*base64!!"}
]}`)
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	doc, err := Load(p, log)
	if err != nil {
		t.Fatalf("a broken image must not fail the document: %v", err)
	}
	if !doc.Slides[0].HasImage() {
		t.Fatalf("slide should still reserve its image column")
	}

	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Logger: log})
	res, err := layout.Build(doc, layout.BuildOptions{Typesetter: r, Logger: log})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	page := res.Pages[1]
	if want := layout.PageWidth/2 - 20; math.Abs(page.ContentWidth-want) > 1e-9 {
		t.Fatalf("content width %g, want %g", page.ContentWidth, want)
	}
	if len(page.Images) != 0 {
		t.Fatalf("undecodable image should be skipped, got %+v", page.Images)
	}
	if logs.FilterMessage("图片无法解码，已跳过").Len() != 1 {
		t.Fatalf("expected one decode warning, got %v", logs.All())
	}
	pdf, err := r.Render(res)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Fatalf("output is not a PDF")
	}
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	jp := writeFile(t, dir, "data.json", `{"team": {"lead": "Ada"}}`)
	yp := writeFile(t, dir, "data.yml", "team:\n  lead: Lin\n")

	for path, want := range map[string]string{jp: "Ada", yp: "Lin"} {
		data, err := LoadData(path)
		if err != nil {
			t.Fatalf("load data %s: %v", path, err)
		}
		m, ok := data.(map[string]interface{})
		if !ok {
			t.Fatalf("expected map, got %T", data)
		}
		team, ok := m["team"].(map[string]interface{})
		if !ok || team["lead"] != want {
			t.Fatalf("unexpected data %v", data)
		}
	}
}
