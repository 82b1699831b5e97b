package match

import (
	"image"
	"image/color"
	"testing"
)

func TestGridFromImageGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 6, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 10)
	}

	// 非零原点的子图
	sub := src.SubImage(image.Rect(2, 1, 5, 4)).(*image.Gray)
	g := GridFromImage(sub)

	if g.Width != 3 || g.Height != 3 {
		t.Fatalf("尺寸错误: %dx%d", g.Width, g.Height)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			want := src.GrayAt(x+2, y+1).Y
			if got := g.At(x, y); got != want {
				t.Errorf("(%d,%d) 期望 %d, 实际 %d", x, y, want, got)
			}
		}
	}
}

func TestGridFromImageColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 120, G: 120, B: 120, A: 255})
	img.Set(2, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	g := GridFromImage(img)
	want := []uint8{76, 120, 255}
	for x, w := range want {
		if got := g.At(x, 0); got != w {
			t.Errorf("像素 %d: 期望 %d, 实际 %d", x, w, got)
		}
	}
}

func TestGridSubAndClone(t *testing.T) {
	g := NewGrid(5, 5)
	for i := range g.Pix {
		g.Pix[i] = uint8(i)
	}

	sub := g.Sub(image.Rect(1, 2, 4, 5))
	if sub.Width != 3 || sub.Height != 3 || sub.Stride != 5 {
		t.Fatalf("子区域尺寸错误: %+v", sub.Size())
	}
	if sub.At(0, 0) != g.At(1, 2) || sub.At(2, 2) != g.At(3, 4) {
		t.Error("子区域像素错误")
	}

	// 子区域共享像素
	sub.Set(0, 0, 200)
	if g.At(1, 2) != 200 {
		t.Error("Sub 应与原网格共享像素")
	}

	c := sub.Clone()
	if c.Stride != 3 || !c.Equal(sub) {
		t.Error("Clone 结果应紧凑且相等")
	}
	c.Set(1, 1, 0)
	if c.Equal(sub) {
		t.Error("Clone 应为深拷贝")
	}

	if out := g.Sub(image.Rect(10, 10, 12, 12)); !out.Empty() {
		t.Error("越界子区域应为空")
	}

	gray := sub.ToImage()
	if gray.Bounds().Dx() != 3 || gray.GrayAt(2, 2).Y != g.At(3, 4) {
		t.Error("ToImage 结果错误")
	}
}

func TestNewGridFromPix(t *testing.T) {
	if _, err := NewGridFromPix(2, 2, []uint8{1, 2, 3}); err == nil {
		t.Error("像素数量不匹配时应报错")
	}
	if _, err := NewGridFromPix(-1, 2, nil); err == nil {
		t.Error("负尺寸应报错")
	}
	g, err := NewGridFromPix(2, 1, []uint8{7, 8})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if g.At(1, 0) != 8 {
		t.Errorf("像素错误: %d", g.At(1, 0))
	}
}

func TestMatchOnSubGrid(t *testing.T) {
	// 在带 stride 的子区域上匹配，结果坐标相对子区域
	big := NewGrid(20, 20)
	pattern, _ := NewGridFromPix(2, 2, []uint8{10, 200, 90, 30})
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			big.Set(12+x, 9+y, pattern.At(x, y))
		}
	}

	view := big.Sub(image.Rect(5, 5, 18, 15))
	res, err := MatchOnce(view, pattern, SqDiff)
	if err != nil {
		t.Fatalf("匹配失败: %v", err)
	}
	if res.TopLeft != (Point{X: 7, Y: 4}) {
		t.Errorf("期望 (7,4), 实际 %v", res.TopLeft)
	}
}
