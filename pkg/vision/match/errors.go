package match

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrEmptySurface 得分面没有任何候选位置
	ErrEmptySurface = errors.New("得分面为空")
	// ErrUnknownMethod 未知的匹配方法
	ErrUnknownMethod = errors.New("未知的匹配方法")
)

// DimensionError 模板与帧尺寸不兼容
type DimensionError struct {
	Frame   image.Point
	Pattern image.Point
	Reason  string
}

func (e *DimensionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("尺寸错误: %s (帧 %dx%d, 模板 %dx%d)",
			e.Reason, e.Frame.X, e.Frame.Y, e.Pattern.X, e.Pattern.Y)
	}
	return fmt.Sprintf("模板尺寸大于帧尺寸 (帧 %dx%d, 模板 %dx%d)",
		e.Frame.X, e.Frame.Y, e.Pattern.X, e.Pattern.Y)
}

// IsDimensionError 判断 err 链中是否包含 DimensionError
func IsDimensionError(err error) bool {
	var de *DimensionError
	return errors.As(err, &de)
}

// CheckDimensions 校验帧与模板尺寸，供其他计算后端复用
func CheckDimensions(frame, pattern *Grid) error {
	if frame == nil || pattern == nil {
		return &DimensionError{Reason: "网格为空"}
	}
	fs, ps := frame.Size(), pattern.Size()
	if !frame.wellFormed() || !pattern.wellFormed() {
		return &DimensionError{Frame: fs, Pattern: ps, Reason: "网格步长或像素数据非法"}
	}
	if pattern.Empty() {
		return &DimensionError{Frame: fs, Pattern: ps, Reason: "模板为空"}
	}
	if ps.X > fs.X || ps.Y > fs.Y {
		return &DimensionError{Frame: fs, Pattern: ps}
	}
	if ps.X*ps.Y > MaxPatternArea {
		return &DimensionError{Frame: fs, Pattern: ps, Reason: "模板面积超过上限"}
	}
	return nil
}
