package cv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// TemplateMode 把匹配方法映射为 OpenCV 的模式
func TemplateMode(m match.Method) (gocv.TemplateMatchMode, error) {
	switch m {
	case match.SqDiff:
		return gocv.TmSqdiff, nil
	case match.SqDiffNormed:
		return gocv.TmSqdiffNormed, nil
	case match.CCorr:
		return gocv.TmCcorr, nil
	case match.CCorrNormed:
		return gocv.TmCcorrNormed, nil
	case match.CCoeff:
		return gocv.TmCcoeff, nil
	case match.CCoeffNormed:
		return gocv.TmCcoeffNormed, nil
	}
	return 0, match.ErrUnknownMethod
}

// MatchTemplate 使用 OpenCV 计算得分面
//
// OpenCV 以 float32 输出，归一化分母为 0 时的处理也与 match 包不同，
// 因此结果只在浮点误差范围内与纯 Go 实现一致。
func MatchTemplate(frame, pattern *match.Grid, method match.Method) (*match.Surface, error) {
	mode, err := TemplateMode(method)
	if err != nil {
		return nil, err
	}
	if err := match.CheckDimensions(frame, pattern); err != nil {
		return nil, err
	}

	frameMat, err := MatFromGrid(frame)
	if err != nil {
		return nil, err
	}
	defer frameMat.Close()

	patternMat, err := MatFromGrid(pattern)
	if err != nil {
		return nil, err
	}
	defer patternMat.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(frameMat, patternMat, &result, mode, mask)
	if result.Empty() {
		return nil, fmt.Errorf("OpenCV 模板匹配失败: %w", match.ErrEmptySurface)
	}

	rows, cols := result.Rows(), result.Cols()
	data := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			data[y*cols+x] = float64(result.GetFloatAt(y, x))
		}
	}
	return match.NewSurface(rows, cols, data)
}

// FindBest 使用 OpenCV 得分面查找最佳匹配
// 极值选择和并列规则与 match.MatchOnce 相同
func FindBest(frame, pattern *match.Grid, method match.Method) (*match.MatchResult, error) {
	surface, err := MatchTemplate(frame, pattern, method)
	if err != nil {
		return nil, err
	}

	loc, val, err := match.LocateBestMatch(surface, method)
	if err != nil {
		return nil, err
	}

	topLeft, bottomRight := match.DeriveBoundingBox(loc, pattern.Width, pattern.Height)
	return &match.MatchResult{
		TopLeft:     topLeft,
		BottomRight: bottomRight,
		Score:       val,
		Method:      method,
	}, nil
}

// Matcher OpenCV 后端的匹配器，与 match.Matcher 用法相同
type Matcher struct {
	pattern *match.Grid
	method  match.Method
}

// NewMatcher 创建匹配器，模板会被拷贝
func NewMatcher(pattern *match.Grid, method match.Method) (*Matcher, error) {
	if _, err := TemplateMode(method); err != nil {
		return nil, err
	}
	// 模板与自身比较即可检查空模板、面积上限和步长
	if err := match.CheckDimensions(pattern, pattern); err != nil {
		return nil, err
	}
	return &Matcher{pattern: pattern.Clone(), method: method}, nil
}

// Match 在一帧上执行匹配
func (m *Matcher) Match(frame *match.Grid) (*match.MatchResult, error) {
	return FindBest(frame, m.pattern, m.method)
}

// Method 返回匹配方法
func (m *Matcher) Method() match.Method {
	return m.method
}
