package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/slidegenius/binding"
	"github.com/ByLCY/slidegenius/config"
	"github.com/ByLCY/slidegenius/deck"
	"github.com/ByLCY/slidegenius/fonts"
	"github.com/ByLCY/slidegenius/layout"
	"github.com/ByLCY/slidegenius/loader"
	canvasrenderer "github.com/ByLCY/slidegenius/renderer/canvas"
)

var renderOpts struct {
	in, out, data, debug string
	noDate               bool
}

var previewOpts struct {
	in, out, data string
	page          int
	dpmm          float64
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "排版文档并写出 PDF",
	Long: `读取 .json / .yaml / .deck 文档，排版后写出 PDF。

未指定 --out 时，文件名由标题推导并写入配置的输出目录。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(cfg, logger)
		if renderOpts.noDate {
			p.now = func() time.Time { return time.Time{} }
		}
		out, err := p.render(renderOpts.in, renderOpts.data, renderOpts.out, renderOpts.debug)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已生成 PDF：%s\n", out)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "将单页栅格化为 PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(cfg, logger)
		dpmm := previewOpts.dpmm
		if dpmm <= 0 {
			dpmm = cfg.PreviewDPMM
		}
		out, err := p.preview(previewOpts.in, previewOpts.data, previewOpts.out, previewOpts.page, dpmm)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已生成预览：%s\n", out)
		return nil
	},
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "列出可用主题与内置字体",
	RunE: func(cmd *cobra.Command, args []string) error {
		writeThemes(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.in, "in", "i", "", "输入文档路径")
	renderCmd.Flags().StringVarP(&renderOpts.out, "out", "o", "", "PDF 输出路径")
	renderCmd.Flags().StringVar(&renderOpts.data, "data", "", "绑定到文档占位符的 JSON/YAML 数据文件")
	renderCmd.Flags().StringVar(&renderOpts.debug, "debug", "", "布局调试 JSON 输出路径")
	renderCmd.Flags().BoolVar(&renderOpts.noDate, "no-date", false, "封面不输出日期")
	_ = renderCmd.MarkFlagRequired("in")

	previewCmd.Flags().StringVarP(&previewOpts.in, "in", "i", "", "输入文档路径")
	previewCmd.Flags().StringVarP(&previewOpts.out, "out", "o", "", "PNG 输出路径")
	previewCmd.Flags().StringVar(&previewOpts.data, "data", "", "绑定到文档占位符的 JSON/YAML 数据文件")
	previewCmd.Flags().IntVarP(&previewOpts.page, "page", "p", 0, "页面序号，0 为封面")
	previewCmd.Flags().Float64Var(&previewOpts.dpmm, "dpmm", 0, "每毫米像素数，默认取配置")
	_ = previewCmd.MarkFlagRequired("in")
}

// pipeline 串联读取、数据绑定、布局与渲染。
type pipeline struct {
	cfg      *config.Config
	log      *zap.Logger
	renderer *canvasrenderer.Renderer
	now      func() time.Time
}

func newPipeline(c *config.Config, log *zap.Logger) *pipeline {
	if c == nil {
		c = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	overrides := make(map[string]canvasrenderer.Resource, len(c.Fonts))
	for key, path := range c.Fonts {
		overrides[key] = canvasrenderer.Resource{Path: path}
	}
	return &pipeline{
		cfg:      c,
		log:      log,
		renderer: canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Fonts: overrides, Logger: log}),
		now:      time.Now,
	}
}

func (p *pipeline) layout(inPath, dataPath string) (*layout.Result, error) {
	if inPath == "" {
		return nil, fmt.Errorf("缺少输入文档")
	}
	doc, err := loader.Load(inPath, p.log)
	if err != nil {
		return nil, err
	}
	if dataPath != "" {
		data, err := loader.LoadData(dataPath)
		if err != nil {
			return nil, err
		}
		doc = binding.Apply(doc, data)
	}

	p.log.Debug("开始排版", zap.String("title", doc.Title), zap.String("theme", string(doc.Theme)), zap.Int("slides", len(doc.Slides)))
	result, err := layout.Build(doc, layout.BuildOptions{
		Typesetter:  p.renderer,
		Logger:      p.log,
		GeneratedAt: p.now(),
		Caption:     p.cfg.Caption,
		Author:      p.cfg.Author,
	})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return result, nil
}

// render 返回实际写出的 PDF 路径。
func (p *pipeline) render(inPath, dataPath, outPath, debugPath string) (string, error) {
	result, err := p.layout(inPath, dataPath)
	if err != nil {
		return "", err
	}
	if debugPath != "" {
		if err := layout.WriteDebugFile(result, debugPath); err != nil {
			return "", err
		}
	}

	if outPath == "" {
		outPath = filepath.Join(p.cfg.OutputDir, result.FileName)
	}
	if err := writeFile(outPath, func(w io.Writer) error { return p.renderer.Write(w, result) }); err != nil {
		return "", fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	p.log.Info("PDF 已生成", zap.String("path", outPath), zap.Int("pages", len(result.Pages)))
	return outPath, nil
}

// preview 返回实际写出的 PNG 路径。
func (p *pipeline) preview(inPath, dataPath, outPath string, page int, dpmm float64) (string, error) {
	result, err := p.layout(inPath, dataPath)
	if err != nil {
		return "", err
	}
	if outPath == "" {
		base := strings.TrimSuffix(result.FileName, filepath.Ext(result.FileName))
		outPath = filepath.Join(p.cfg.OutputDir, fmt.Sprintf("%s_%d.png", base, page))
	}
	if err := writeFile(outPath, func(w io.Writer) error { return p.renderer.PreviewPNG(w, result, page, dpmm) }); err != nil {
		return "", fmt.Errorf("生成预览失败: %w", err)
	}
	return outPath, nil
}

// writeFile 先写入临时文件，成功后再替换目标文件。
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".slidegenius-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeThemes(w io.Writer) {
	for _, t := range deck.Themes {
		tc := layout.ThemeFor(t)
		fmt.Fprintf(w, "%-10s style=%-7s primary=%s background=%s accent=%s header=%s body=%s\n",
			t, tc.Style, tc.Primary.Hex(), tc.Background.Hex(), tc.Accent.Hex(), tc.HeaderFont, tc.BodyFont)
	}
	fmt.Fprintf(w, "fonts: %s\n", strings.Join(fonts.Names(), ", "))
}
