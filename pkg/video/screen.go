package video

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/pkg/errors"

	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// ScreenSource 以固定间隔截取屏幕作为帧源
type ScreenSource struct {
	limit    int
	interval time.Duration
	region   image.Rectangle
	next     int
}

// NewScreenSource 创建屏幕帧源
// limit 为 0 表示不限帧数，region 为空表示全屏
func NewScreenSource(limit int, interval time.Duration, region image.Rectangle) *ScreenSource {
	return &ScreenSource{limit: limit, interval: interval, region: region}
}

func (s *ScreenSource) Next(ctx context.Context) (*Frame, error) {
	if s.limit > 0 && s.next >= s.limit {
		return nil, io.EOF
	}
	if s.next > 0 && s.interval > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.interval):
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := s.capture()
	if err != nil {
		return nil, errors.Wrapf(err, "第 %d 帧截屏失败", s.next)
	}

	f := &Frame{Index: s.next, Image: img, Gray: match.GridFromImage(img)}
	s.next++
	return f, nil
}

func (s *ScreenSource) capture() (image.Image, error) {
	if s.region.Empty() {
		return robotgo.CaptureImg()
	}
	r := s.region
	return robotgo.CaptureImg(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

func (s *ScreenSource) Info() StreamInfo {
	info := StreamInfo{Width: s.region.Dx(), Height: s.region.Dy()}
	if s.region.Empty() {
		info.Width, info.Height = robotgo.GetScreenSize()
	}
	if s.interval > 0 {
		info.FPS = float64(time.Second) / float64(s.interval)
	}
	return info
}

func (s *ScreenSource) Close() error { return nil }
