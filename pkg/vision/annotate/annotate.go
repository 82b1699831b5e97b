// Package annotate 在图像上绘制匹配结果并负责静态图像的读写
//
// 绘制完全使用纯 Go 实现（freetype 渲染得分文字），
// 不依赖窗口系统，方便在测试和无界面环境中使用。
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// Style 标注样式
type Style struct {
	BoxColor   color.Color
	Thickness  int
	ShowLabel  bool
	LabelColor color.Color
	LabelSize  float64
	// LabelAt 文字基线起点
	LabelAt image.Point
}

// DefaultStyle 静态图像标注样式：绿色框 + 左上角红色得分
func DefaultStyle() Style {
	return Style{
		BoxColor:   color.RGBA{0, 255, 0, 255},
		Thickness:  2,
		ShowLabel:  true,
		LabelColor: color.RGBA{255, 0, 0, 255},
		LabelSize:  24,
		LabelAt:    image.Point{X: 10, Y: 30},
	}
}

// VideoStyle 视频帧标注样式：只画框
func VideoStyle() Style {
	s := DefaultStyle()
	s.ShowLabel = false
	return s
}

var (
	fontOnce sync.Once
	fontFace *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontFace, fontErr = freetype.ParseFont(goregular.TTF)
	})
	return fontFace, fontErr
}

// ToRGBA 拷贝为 *image.RGBA，原点移到 (0,0)
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// DrawBox 绘制矩形边框，线宽向外扩展，超出图像的部分被裁剪
func DrawBox(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	src := image.NewUniform(c)
	for i := 0; i < thickness; i++ {
		o := r.Inset(-i)
		// 上 下 左 右
		draw.Draw(dst, image.Rect(o.Min.X, o.Min.Y, o.Max.X, o.Min.Y+1), src, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(o.Min.X, o.Max.Y-1, o.Max.X, o.Max.Y), src, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(o.Min.X, o.Min.Y, o.Min.X+1, o.Max.Y), src, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(o.Max.X-1, o.Min.Y, o.Max.X, o.Max.Y), src, image.Point{}, draw.Src)
	}
}

// DrawLabel 在 at（基线起点）处绘制文字
func DrawLabel(dst draw.Image, text string, at image.Point, size float64, c color.Color) error {
	f, err := loadFont()
	if err != nil {
		return fmt.Errorf("加载字体失败: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(c))
	ctx.SetHinting(font.HintingFull)

	if _, err := ctx.DrawString(text, freetype.Pt(at.X, at.Y)); err != nil {
		return fmt.Errorf("绘制文字失败: %w", err)
	}
	return nil
}

// Annotate 拷贝图像并绘制匹配框和得分，res 为 nil 时只做拷贝
func Annotate(img image.Image, res *match.MatchResult, style Style) (*image.RGBA, error) {
	dst := ToRGBA(img)
	if res == nil {
		return dst, nil
	}

	DrawBox(dst, res.Rect(), style.BoxColor, style.Thickness)

	if style.ShowLabel {
		if err := DrawLabel(dst, res.Label(), style.LabelAt, style.LabelSize, style.LabelColor); err != nil {
			return dst, err
		}
	}
	return dst, nil
}
