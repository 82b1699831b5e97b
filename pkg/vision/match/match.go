// Package match 提供纯 Go 的单模板匹配
//
// 支持六种得分方法:
//   - 平方差族 (越小越好): TM_SQDIFF, TM_SQDIFF_NORMED
//   - 相关族 (越大越好): TM_CCORR, TM_CCORR_NORMED, TM_CCOEFF, TM_CCOEFF_NORMED
//
// 基本用法:
//
//	frame := match.GridFromImage(img)
//	pattern := match.GridFromImage(tpl)
//	res, err := match.MatchOnce(frame, pattern, match.CCoeffNormed)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("匹配位置: %v, 得分: %.4f\n", res.TopLeft, res.Score)
//
// 视频场景下模板只加载一次，使用 Matcher 在每一帧上复用:
//
//	m, err := match.NewMatcher(pattern, match.CCoeffNormed)
//	res, err := m.Match(frame)
package match

import "runtime"

// Option 匹配选项
type Option func(*options)

type options struct {
	workers int
}

func newOptions(opts []Option) *options {
	o := &options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithWorkers 设置计算得分面的并发数，<=1 表示单协程
// 并发数不影响计算结果
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// DeriveBoundingBox 由左上角和模板尺寸计算右下角
func DeriveBoundingBox(topLeft Point, width, height int) (Point, Point) {
	return topLeft, Point{X: topLeft.X + width, Y: topLeft.Y + height}
}

// MatchOnce 在帧中查找模板的最佳位置
func MatchOnce(frame, pattern *Grid, method Method, opts ...Option) (*MatchResult, error) {
	cfg := newOptions(opts)
	return matchWith(frame, pattern, method, newPatternStats(pattern), cfg.workers)
}

func matchWith(frame, pattern *Grid, method Method, ps patternStats, workers int) (*MatchResult, error) {
	surface, err := computeSurface(frame, pattern, method, ps, workers)
	if err != nil {
		return nil, err
	}

	loc, val, err := LocateBestMatch(surface, method)
	if err != nil {
		return nil, err
	}

	topLeft, bottomRight := DeriveBoundingBox(loc, pattern.Width, pattern.Height)
	return &MatchResult{
		TopLeft:     topLeft,
		BottomRight: bottomRight,
		Score:       val,
		Method:      method,
	}, nil
}

// Matcher 持有不可变模板，在多帧上复用
// 不保存任何跨帧状态，可并发调用
type Matcher struct {
	pattern *Grid
	method  Method
	stats   patternStats
	workers int
}

// NewMatcher 创建匹配器，模板会被拷贝，调用方之后修改原网格不影响匹配
func NewMatcher(pattern *Grid, method Method, opts ...Option) (*Matcher, error) {
	if !method.Valid() {
		return nil, ErrUnknownMethod
	}
	if pattern.Empty() {
		return nil, &DimensionError{Reason: "模板为空"}
	}
	if !pattern.wellFormed() {
		return nil, &DimensionError{Pattern: pattern.Size(), Reason: "网格步长或像素数据非法"}
	}
	cfg := newOptions(opts)
	p := pattern.Clone()
	return &Matcher{
		pattern: p,
		method:  method,
		stats:   newPatternStats(p),
		workers: cfg.workers,
	}, nil
}

// Match 在一帧上执行匹配
func (m *Matcher) Match(frame *Grid) (*MatchResult, error) {
	return matchWith(frame, m.pattern, m.method, m.stats, m.workers)
}

// Surface 返回该帧的完整得分面
func (m *Matcher) Surface(frame *Grid) (*Surface, error) {
	return computeSurface(frame, m.pattern, m.method, m.stats, m.workers)
}

// Pattern 返回模板（只读）
func (m *Matcher) Pattern() *Grid {
	return m.pattern
}

// Method 返回匹配方法
func (m *Matcher) Method() Method {
	return m.method
}
