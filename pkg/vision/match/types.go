package match

import (
	"fmt"
	"image"
)

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add 坐标相加
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub 坐标相减
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// MatchResult 单次匹配结果
type MatchResult struct {
	// TopLeft 匹配区域左上角
	TopLeft Point `json:"top_left"`
	// BottomRight 匹配区域右下角（不含）
	BottomRight Point `json:"bottom_right"`
	// Score 最佳位置的得分
	Score float64 `json:"score"`
	// Method 使用的匹配方法
	Method Method `json:"method"`
}

// Rect 转换为 image.Rectangle
func (r *MatchResult) Rect() image.Rectangle {
	return image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y)
}

// Center 返回匹配区域中心点
func (r *MatchResult) Center() Point {
	return Point{
		X: (r.TopLeft.X + r.BottomRight.X) / 2,
		Y: (r.TopLeft.Y + r.BottomRight.Y) / 2,
	}
}

// Width 匹配区域宽度
func (r *MatchResult) Width() int {
	return r.BottomRight.X - r.TopLeft.X
}

// Height 匹配区域高度
func (r *MatchResult) Height() int {
	return r.BottomRight.Y - r.TopLeft.Y
}

// Label 返回用于叠加显示的得分文字
func (r *MatchResult) Label() string {
	return fmt.Sprintf("Score: %.4f", r.Score)
}

func (r *MatchResult) String() string {
	return fmt.Sprintf("%s (%d,%d)-(%d,%d) score=%.4f",
		r.Method, r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y, r.Score)
}
