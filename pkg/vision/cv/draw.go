package cv

import (
	"image/color"

	"gocv.io/x/gocv"

	"github.com/zoeyai/zoeymatch/pkg/vision/annotate"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// DrawMatch 在 Mat 上绘制匹配框和得分
func DrawMatch(img *gocv.Mat, res *match.MatchResult, style annotate.Style) {
	if res == nil {
		return
	}
	gocv.Rectangle(img, res.Rect(), toRGBA(style.BoxColor), style.Thickness)
	if style.ShowLabel {
		gocv.PutText(img, res.Label(), style.LabelAt, gocv.FontHersheySimplex, 1, toRGBA(style.LabelColor), 2)
	}
}

// Show 缩放后在窗口中显示图像，返回按键码（超时返回 -1）
func Show(title string, img gocv.Mat, scale float64, width, height, waitMs int) int {
	display := img
	if scale > 0 && scale != 1.0 {
		display = ResizeImage(img, scale)
		defer display.Close()
	}

	window := gocv.NewWindow(title)
	defer window.Close()

	window.ResizeWindow(width, height)
	window.IMShow(display)
	return window.WaitKey(waitMs)
}

func toRGBA(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{0, 255, 0, 255}
	}
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}
