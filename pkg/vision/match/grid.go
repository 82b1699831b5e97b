package match

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Grid 灰度采样网格（8 位单通道）
//
// 像素按行优先存储，(x, y) 处的值为 Pix[y*Stride+x]。
type Grid struct {
	Width  int
	Height int
	Stride int
	Pix    []uint8
}

// NewGrid 创建全零网格
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    make([]uint8, width*height),
	}
}

// NewGridFromPix 使用已有像素创建网格，pix 长度必须为 width*height
func NewGridFromPix(width, height int, pix []uint8) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("网格尺寸非法: %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("像素数量不匹配: 期望 %d, 实际 %d", width*height, len(pix))
	}
	return &Grid{Width: width, Height: height, Stride: width, Pix: pix}, nil
}

// GridFromImage 将任意图像转换为灰度网格
// 彩色图像使用 imaging.Grayscale（0.299R + 0.587G + 0.114B）
func GridFromImage(img image.Image) *Grid {
	if img == nil {
		return NewGrid(0, 0)
	}

	if gray, ok := img.(*image.Gray); ok {
		b := gray.Bounds()
		g := NewGrid(b.Dx(), b.Dy())
		for y := 0; y < g.Height; y++ {
			off := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(g.Pix[y*g.Stride:y*g.Stride+g.Width], gray.Pix[off:off+g.Width])
		}
		return g
	}

	// Grayscale 结果 R=G=B，取 R 通道即可
	nrgba := imaging.Grayscale(img)
	g := NewGrid(nrgba.Rect.Dx(), nrgba.Rect.Dy())
	for y := 0; y < g.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < g.Width; x++ {
			g.Pix[y*g.Stride+x] = row[x*4]
		}
	}
	return g
}

// At 返回 (x, y) 处的像素值
func (g *Grid) At(x, y int) uint8 {
	return g.Pix[y*g.Stride+x]
}

// Set 设置 (x, y) 处的像素值
func (g *Grid) Set(x, y int, v uint8) {
	g.Pix[y*g.Stride+x] = v
}

// Bounds 返回网格范围
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Size 返回 (宽, 高)
func (g *Grid) Size() image.Point {
	return image.Point{X: g.Width, Y: g.Height}
}

// Empty 网格是否没有像素
func (g *Grid) Empty() bool {
	return g == nil || g.Width == 0 || g.Height == 0
}

// wellFormed 检查尺寸、步长与像素切片长度是否一致
func (g *Grid) wellFormed() bool {
	if g.Width < 0 || g.Height < 0 || g.Stride < g.Width {
		return false
	}
	if g.Width == 0 || g.Height == 0 {
		return true
	}
	return len(g.Pix) >= (g.Height-1)*g.Stride+g.Width
}

// Sub 返回与原网格共享像素的子区域，r 会被裁剪到网格范围内
func (g *Grid) Sub(r image.Rectangle) *Grid {
	r = r.Intersect(g.Bounds())
	if r.Empty() {
		return &Grid{}
	}
	off := r.Min.Y*g.Stride + r.Min.X
	end := (r.Max.Y-1)*g.Stride + r.Max.X
	return &Grid{
		Width:  r.Dx(),
		Height: r.Dy(),
		Stride: g.Stride,
		Pix:    g.Pix[off:end],
	}
}

// Clone 深拷贝为紧凑网格
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		copy(c.Pix[y*c.Stride:y*c.Stride+c.Width], g.Pix[y*g.Stride:y*g.Stride+g.Width])
	}
	return c
}

// ToImage 转换为 *image.Gray
func (g *Grid) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+g.Width], g.Pix[y*g.Stride:y*g.Stride+g.Width])
	}
	return img
}

// Equal 判断两个网格尺寸与像素是否完全一致
func (g *Grid) Equal(o *Grid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	for y := 0; y < g.Height; y++ {
		a := g.Pix[y*g.Stride : y*g.Stride+g.Width]
		b := o.Pix[y*o.Stride : y*o.Stride+o.Width]
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}
