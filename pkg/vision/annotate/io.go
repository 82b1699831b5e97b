package annotate

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Load 读取图像文件，按 EXIF 方向自动旋转
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("无法读取图像: %s: %w", path, err)
	}
	return img, nil
}

// Save 保存图像，目录不存在时自动创建
// .webp 使用无损 webp 编码，其余格式按扩展名交给 imaging
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("创建文件失败: %w", err)
		}
		if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
			f.Close()
			return fmt.Errorf("webp 编码失败: %w", err)
		}
		return f.Close()
	}

	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("保存图像失败: %s: %w", path, err)
	}
	return nil
}

// Montage 把多张图按 cols 列拼成一张总览图，每张图上方显示标题
// 每个单元格宽度为 cellWidth，图像等比缩放
func Montage(tiles []image.Image, titles []string, cols, cellWidth int) (*image.NRGBA, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("没有可拼接的图像")
	}
	if cols < 1 {
		cols = 1
	}
	if cellWidth < 1 {
		return nil, fmt.Errorf("单元格宽度非法: %d", cellWidth)
	}

	const titleBand = 28

	scaled := make([]*image.NRGBA, len(tiles))
	cellImgH := 0
	for i, tile := range tiles {
		scaled[i] = imaging.Resize(tile, cellWidth, 0, imaging.Lanczos)
		cellImgH = max(cellImgH, scaled[i].Bounds().Dy())
	}

	rows := (len(tiles) + cols - 1) / cols
	cellH := cellImgH + titleBand
	sheet := imaging.New(cols*cellWidth, rows*cellH, color.White)

	for i, tile := range scaled {
		x := (i % cols) * cellWidth
		y := (i / cols) * cellH
		sheet = imaging.Paste(sheet, tile, image.Pt(x, y+titleBand))

		if i < len(titles) && titles[i] != "" {
			if err := DrawLabel(sheet, titles[i], image.Pt(x+6, y+titleBand-8), 16, color.Black); err != nil {
				return nil, err
			}
		}
	}
	return sheet, nil
}
