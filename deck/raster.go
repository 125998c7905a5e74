package deck

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"
)

// Raster 保存尚未解码的图片字节（PNG/JPEG/GIF/WebP）。
// JSON 与 YAML 中以 base64 字符串出现，允许带 data URL 前缀。
type Raster []byte

// Decode 解码图片并按 EXIF 方向校正。
func (r Raster) Decode() (image.Image, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("图片数据为空")
	}
	img, err := imaging.Decode(bytes.NewReader(r), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}
	return img, nil
}

// MarshalJSON 输出标准 base64 字符串。
func (r Raster) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(r))
}

// UnmarshalJSON 接受 base64 字符串或 null；非字符串值报错，无效 base64 不报错。
func (r *Raster) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("图片字段必须是 base64 字符串: %w", err)
	}
	return r.decodeString(s)
}

// MarshalYAML 输出 base64 字符串。
func (r Raster) MarshalYAML() (any, error) {
	return base64.StdEncoding.EncodeToString(r), nil
}

// UnmarshalYAML 接受 base64 字符串。
func (r *Raster) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("图片字段必须是 base64 字符串: %w", err)
	}
	return r.decodeString(s)
}

func (r *Raster) decodeString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*r = nil
		return nil
	}
	// data:image/png;base64,....
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i != -1 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// 生成服务偶尔省略 padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			// 保留原始内容：该页仍预留图片区域，解码失败留到排版阶段逐图告警
			data = []byte(s)
		}
	}
	*r = data
	return nil
}
