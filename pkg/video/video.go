// Package video 提供逐帧模板匹配流水线
//
// 帧由 Source 产生（视频文件、摄像头、屏幕截图或内存图像），
// 经 Pipeline 并发匹配并按原顺序交给 Sink（视频文件、窗口或回调）。
package video

import (
	"context"
	"errors"
	"image"
	"io"

	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// ErrStopped Sink 请求提前结束（如窗口中按下 q）
var ErrStopped = errors.New("用户停止")

// Frame 单帧数据
type Frame struct {
	Index int
	Image image.Image
	// Gray 匹配使用的灰度网格，为空时由 Image 转换
	Gray *match.Grid
	// Annotated 标注后的图像，匹配失败时为空
	Annotated image.Image
}

// Output 返回要输出的图像
func (f *Frame) Output() image.Image {
	if f.Annotated != nil {
		return f.Annotated
	}
	return f.Image
}

// StreamInfo 帧源信息
type StreamInfo struct {
	FPS    float64
	Width  int
	Height int
}

// Source 帧源，结束时 Next 返回 io.EOF
type Source interface {
	Next(ctx context.Context) (*Frame, error)
	Info() StreamInfo
	Close() error
}

// Sink 帧输出
type Sink interface {
	Write(ctx context.Context, f *Frame, res *match.MatchResult) error
	Close() error
}

// FuncSink 把函数适配为 Sink
type FuncSink func(ctx context.Context, f *Frame, res *match.MatchResult) error

func (fn FuncSink) Write(ctx context.Context, f *Frame, res *match.MatchResult) error {
	return fn(ctx, f, res)
}

func (fn FuncSink) Close() error { return nil }

// SliceSource 内存中的图像序列
type SliceSource struct {
	images []image.Image
	fps    float64
	next   int
}

// NewSliceSource 创建内存帧源
func NewSliceSource(images []image.Image, fps float64) *SliceSource {
	return &SliceSource{images: images, fps: fps}
}

func (s *SliceSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.images) {
		return nil, io.EOF
	}
	img := s.images[s.next]
	f := &Frame{Index: s.next, Image: img, Gray: match.GridFromImage(img)}
	s.next++
	return f, nil
}

func (s *SliceSource) Info() StreamInfo {
	info := StreamInfo{FPS: s.fps}
	if len(s.images) > 0 {
		b := s.images[0].Bounds()
		info.Width, info.Height = b.Dx(), b.Dy()
	}
	return info
}

func (s *SliceSource) Close() error { return nil }
