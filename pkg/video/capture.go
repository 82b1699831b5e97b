package video

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/zoeyai/zoeymatch/pkg/vision/cv"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// CaptureSource 基于 OpenCV VideoCapture 的帧源（视频文件或摄像头）
type CaptureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	next    int
}

// OpenCaptureSource 打开视频文件或设备（纯数字视为设备号）
func OpenCaptureSource(input string) (*CaptureSource, error) {
	capture, err := gocv.OpenVideoCapture(input)
	if err != nil {
		return nil, errors.Wrapf(err, "无法打开视频源 %s", input)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("无法打开视频源 %s", input)
	}
	return &CaptureSource{capture: capture, mat: gocv.NewMat()}, nil
}

func (c *CaptureSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, io.EOF
	}

	img, err := cv.MatToImage(c.mat)
	if err != nil {
		return nil, errors.Wrapf(err, "第 %d 帧转换失败", c.next)
	}
	gray, err := cv.GridFromMat(c.mat)
	if err != nil {
		return nil, errors.Wrapf(err, "第 %d 帧灰度转换失败", c.next)
	}

	f := &Frame{Index: c.next, Image: img, Gray: gray}
	c.next++
	return f, nil
}

func (c *CaptureSource) Info() StreamInfo {
	return StreamInfo{
		FPS:    c.capture.Get(gocv.VideoCaptureFPS),
		Width:  int(c.capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(c.capture.Get(gocv.VideoCaptureFrameHeight)),
	}
}

func (c *CaptureSource) Close() error {
	c.mat.Close()
	return c.capture.Close()
}

// WriterSink 把输出帧编码为视频文件，首帧到达时才创建文件
type WriterSink struct {
	path   string
	codec  string
	fps    float64
	writer *gocv.VideoWriter
}

// NewWriterSink 创建视频输出，fps 非正时使用 30
func NewWriterSink(path string, fps float64) *WriterSink {
	if fps <= 0 {
		fps = 30
	}
	return &WriterSink{path: path, codec: "mp4v", fps: fps}
}

func (w *WriterSink) open(width, height int) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return errors.Wrap(err, "创建输出目录失败")
	}
	writer, err := gocv.VideoWriterFile(w.path, w.codec, w.fps, width, height, true)
	if err != nil {
		return errors.Wrapf(err, "无法创建视频文件 %s", w.path)
	}
	w.writer = writer
	return nil
}

func (w *WriterSink) Write(ctx context.Context, f *Frame, res *match.MatchResult) error {
	img := f.Output()
	if w.writer == nil {
		b := img.Bounds()
		if err := w.open(b.Dx(), b.Dy()); err != nil {
			return err
		}
	}

	mat, err := cv.ImageToMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	return w.writer.Write(mat)
}

func (w *WriterSink) Close() error {
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return err
}

// WindowSink 在窗口中实时显示输出帧，按 q 停止
type WindowSink struct {
	title  string
	width  int
	height int
	window *gocv.Window
}

// NewWindowSink 创建显示窗口
func NewWindowSink(title string, width, height int) *WindowSink {
	return &WindowSink{title: title, width: width, height: height}
}

func (w *WindowSink) Write(ctx context.Context, f *Frame, res *match.MatchResult) error {
	if w.window == nil {
		w.window = gocv.NewWindow(w.title)
		w.window.ResizeWindow(w.width, w.height)
	}

	mat, err := cv.ImageToMat(f.Output())
	if err != nil {
		return err
	}
	defer mat.Close()

	w.window.IMShow(mat)
	if key := w.window.WaitKey(1); key == 'q' || key == 'Q' {
		return ErrStopped
	}
	return nil
}

func (w *WindowSink) Close() error {
	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}
