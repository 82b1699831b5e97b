package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/zoeyai/zoeymatch/internal/logger"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// spotFrame 黑底上在 (x, y) 处放置 3x3 亮块
func spotFrame(w, h, x, y int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for dy := 0; dy < 3; dy++ {
		for dx := 0; dx < 3; dx++ {
			img.SetGray(x+dx, y+dy, color.Gray{Y: 255})
		}
	}
	return img
}

func spotMatcher(t *testing.T) *match.Matcher {
	t.Helper()
	// 5x5 模板：亮块外加一圈黑边
	tpl := match.GridFromImage(spotFrame(5, 5, 1, 1))
	m, err := match.NewMatcher(tpl, match.CCoeffNormed, match.WithWorkers(1))
	if err != nil {
		t.Fatalf("创建匹配器失败: %v", err)
	}
	return m
}

func quietLogger() *logger.Logger {
	l := logger.New()
	l.SetOutput(io.Discard)
	return l
}

type recorded struct {
	index int
	res   *match.MatchResult
	frame *Frame
}

func recordSink(out *[]recorded) FuncSink {
	return func(ctx context.Context, f *Frame, res *match.MatchResult) error {
		*out = append(*out, recorded{index: f.Index, res: res, frame: f})
		return nil
	}
}

func TestPipelineKeepsFrameOrder(t *testing.T) {
	var images []image.Image
	for i := 0; i < 12; i++ {
		images = append(images, spotFrame(24, 18, 2+i, 3+i%7))
	}

	var got []recorded
	p := &Pipeline{
		Matcher: spotMatcher(t),
		Source:  NewSliceSource(images, 25),
		Sinks:   []Sink{recordSink(&got)},
		Workers: 4,
		Logger:  quietLogger(),
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("运行失败: %v", err)
	}
	if report.RunID == uuid.Nil {
		t.Error("RunID 不应为空")
	}
	if report.Frames != 12 || report.Matched != 12 || report.Skipped != 0 {
		t.Errorf("统计错误: %+v", report)
	}
	if len(got) != 12 {
		t.Fatalf("期望输出 12 帧, 实际 %d", len(got))
	}

	for i, r := range got {
		if r.index != i {
			t.Fatalf("第 %d 个输出的帧序号为 %d", i, r.index)
		}
		want := match.Point{X: 2 + i - 1, Y: 3 + i%7 - 1}
		if r.res == nil || r.res.TopLeft != want {
			t.Errorf("帧 %d: 期望 %v, 实际 %v", i, want, r.res)
		}
		if r.frame.Annotated == nil {
			t.Errorf("帧 %d 应有标注图像", i)
		}
		if report.Results[i].Index != i {
			t.Errorf("报告顺序错误: %d", report.Results[i].Index)
		}
	}
}

func TestPipelineSkipsFailedFrame(t *testing.T) {
	images := []image.Image{
		spotFrame(20, 20, 5, 5),
		image.NewGray(image.Rect(0, 0, 3, 3)), // 小于模板
		spotFrame(20, 20, 9, 2),
	}

	var got []recorded
	p := &Pipeline{
		Matcher: spotMatcher(t),
		Source:  NewSliceSource(images, 0),
		Sinks:   []Sink{recordSink(&got)},
		Workers: 2,
		Logger:  quietLogger(),
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("单帧失败不应中断运行: %v", err)
	}
	if report.Frames != 3 || report.Matched != 2 || report.Skipped != 1 {
		t.Errorf("统计错误: %+v", report)
	}
	if len(got) != 3 {
		t.Fatalf("失败帧也应输出, 实际输出 %d 帧", len(got))
	}
	if got[1].res != nil || got[1].frame.Annotated != nil {
		t.Error("失败帧不应有结果和标注")
	}
	if got[1].frame.Output() != images[1] {
		t.Error("失败帧应原样输出")
	}
	if report.Results[1].Error == "" {
		t.Error("报告应记录失败原因")
	}
	if got[2].res.TopLeft != (match.Point{X: 8, Y: 1}) {
		t.Errorf("第 3 帧位置错误: %v", got[2].res.TopLeft)
	}
}

func TestPipelineStopRequested(t *testing.T) {
	var images []image.Image
	for i := 0; i < 20; i++ {
		images = append(images, spotFrame(16, 16, i%10, 4))
	}

	calls := 0
	stopAt := FuncSink(func(ctx context.Context, f *Frame, res *match.MatchResult) error {
		calls++
		if f.Index == 3 {
			return ErrStopped
		}
		return nil
	})

	p := &Pipeline{
		Matcher: spotMatcher(t),
		Source:  NewSliceSource(images, 0),
		Sinks:   []Sink{stopAt},
		Workers: 3,
		Logger:  quietLogger(),
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("停止请求不应返回错误: %v", err)
	}
	if !report.Stopped {
		t.Error("报告应标记为已停止")
	}
	if calls != 4 || report.Frames != 4 {
		t.Errorf("期望在第 4 帧后停止, calls=%d frames=%d", calls, report.Frames)
	}
}

func TestPipelineSinkError(t *testing.T) {
	boom := errors.New("磁盘已满")
	images := []image.Image{spotFrame(10, 10, 1, 1), spotFrame(10, 10, 2, 2)}

	p := &Pipeline{
		Matcher: spotMatcher(t),
		Source:  NewSliceSource(images, 0),
		Sinks: []Sink{FuncSink(func(ctx context.Context, f *Frame, res *match.MatchResult) error {
			return boom
		})},
		Logger: quietLogger(),
	}

	_, err := p.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("期望包装后的 Sink 错误, 实际 %v", err)
	}
}

func TestPipelineCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Pipeline{
		Matcher: spotMatcher(t),
		Source:  NewSliceSource([]image.Image{spotFrame(10, 10, 1, 1)}, 0),
		Logger:  quietLogger(),
	}

	report, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("期望 context.Canceled, 实际 %v", err)
	}
	if report == nil || report.Frames != 0 {
		t.Errorf("取消后不应处理任何帧: %+v", report)
	}
}

func TestPipelineRequiresMatcherAndSource(t *testing.T) {
	if _, err := (&Pipeline{}).Run(context.Background()); err == nil {
		t.Error("缺少匹配器和帧源时应返回错误")
	}
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]image.Image{spotFrame(7, 5, 0, 0)}, 30)
	info := src.Info()
	if info.Width != 7 || info.Height != 5 || info.FPS != 30 {
		t.Errorf("帧源信息错误: %+v", info)
	}

	f, err := src.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.Gray == nil || f.Gray.At(1, 1) != 255 {
		t.Error("灰度网格未正确生成")
	}
	if _, err := src.Next(context.Background()); err != io.EOF {
		t.Errorf("期望 io.EOF, 实际 %v", err)
	}
}
