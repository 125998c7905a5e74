// Package loader reads presentation documents from disk.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/slidegenius/deck"
	"github.com/ByLCY/slidegenius/dsl"
)

// Load 按扩展名读取 .json / .yaml / .yml / .deck 文档，并把相对图片路径
// 按文档所在目录解析后读入。图片文件读取失败只记录告警，对应图片留空。
func Load(path string, log *zap.Logger) (*deck.Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取文档 %s: %w", path, err)
	}
	doc, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	resolveImages(doc, filepath.Dir(path), log)
	return doc, nil
}

// Decode 按 name 的扩展名解析 data，不读取任何图片文件。
func Decode(name string, data []byte) (*deck.Document, error) {
	var doc deck.Document
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("解析 JSON 文档 %s 失败: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("解析 YAML 文档 %s 失败: %w", name, err)
		}
	case ".deck":
		parsed, err := dsl.Decode(name, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("解析 DSL 文档失败: %w", err)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("不支持的文档格式 %q", ext)
	}
	doc.Theme = deck.ParseTheme(string(doc.Theme))
	return &doc, nil
}

// LoadData 读取 JSON 或 YAML 绑定数据；YAML 以 .yaml/.yml 扩展名识别，其余按 JSON 处理。
func LoadData(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取数据文件 %s: %w", path, err)
	}
	var data any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	default:
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("解析数据文件 %s 失败: %w", path, err)
	}
	return data, nil
}

func resolveImages(doc *deck.Document, baseDir string, log *zap.Logger) {
	if len(doc.CoverImage) == 0 && doc.CoverImagePath != "" {
		doc.CoverImage = readImage(baseDir, doc.CoverImagePath, log)
	}
	for i := range doc.Slides {
		s := &doc.Slides[i]
		if len(s.Image) == 0 && s.ImagePath != "" {
			s.Image = readImage(baseDir, s.ImagePath, log)
		}
	}
}

func readImage(baseDir, p string, log *zap.Logger) deck.Raster {
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(baseDir, p)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		log.Warn("图片文件读取失败，已忽略", zap.String("path", full), zap.Error(err))
		return nil
	}
	return data
}
