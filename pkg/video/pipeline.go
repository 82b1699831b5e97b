package video

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/zoeyai/zoeymatch/internal/logger"
	"github.com/zoeyai/zoeymatch/pkg/vision/annotate"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// FrameResult 单帧匹配记录
type FrameResult struct {
	Index   int                `json:"index"`
	Result  *match.MatchResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
	Elapsed time.Duration      `json:"elapsed"`
}

// Report 一次运行的汇总
type Report struct {
	RunID   uuid.UUID     `json:"run_id"`
	Frames  int           `json:"frames"`
	Matched int           `json:"matched"`
	Skipped int           `json:"skipped"`
	Stopped bool          `json:"stopped"`
	Results []FrameResult `json:"results"`
	Elapsed time.Duration `json:"elapsed"`
}

func (r *Report) String() string {
	return fmt.Sprintf("运行 %s: 共 %d 帧, 匹配 %d, 跳过 %d, 耗时 %v",
		r.RunID, r.Frames, r.Matched, r.Skipped, r.Elapsed.Round(time.Millisecond))
}

// Locator 单帧匹配器，match.Matcher 与 cv.Matcher 均满足
// 实现必须可以被多个协程同时调用
type Locator interface {
	Match(frame *match.Grid) (*match.MatchResult, error)
	Method() match.Method
}

// Pipeline 逐帧匹配流水线
type Pipeline struct {
	Matcher Locator
	Source  Source
	Sinks   []Sink
	// Workers 并发匹配数，0 表示物理核数
	Workers int
	// Style 标注样式，BoxColor 为空时使用 annotate.VideoStyle
	Style  annotate.Style
	Logger *logger.Logger
}

type outcome struct {
	seq   int
	frame *Frame
	res   FrameResult
}

func (p *Pipeline) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func (p *Pipeline) style() annotate.Style {
	if p.Style.BoxColor == nil {
		return annotate.VideoStyle()
	}
	return p.Style
}

func (p *Pipeline) logger() *logger.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logger.Default().Named("video")
}

// Run 读取全部帧并匹配，按帧顺序写入所有 Sink
//
// 单帧匹配失败只记录警告，帧原样输出。Sink 返回 ErrStopped 时正常结束。
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if p.Matcher == nil || p.Source == nil {
		return nil, errors.New("流水线缺少匹配器或帧源")
	}

	log := p.logger()
	style := p.style()
	workers := p.workers()
	report := &Report{RunID: uuid.New()}
	start := time.Now()
	log.Info("开始运行 %s: 方法=%s, 并发=%d", report.RunID, p.Matcher.Method(), workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		seq   int
		frame *Frame
	}
	jobs := make(chan job, workers)
	done := make(chan outcome, workers)

	// 读取帧
	var readErr error
	go func() {
		defer close(jobs)
		for seq := 0; ; seq++ {
			f, err := p.Source.Next(runCtx)
			if err != nil {
				if err != io.EOF && runCtx.Err() == nil {
					readErr = errors.Wrapf(err, "读取第 %d 帧失败", seq)
				}
				return
			}
			select {
			case jobs <- job{seq: seq, frame: f}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	// 并发匹配
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				done <- p.process(j.seq, j.frame, style, log)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	// 按顺序输出
	var sinkErr error
	pending := make(map[int]outcome)
	next := 0
	for o := range done {
		pending[o.seq] = o
		for {
			cur, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if sinkErr != nil || report.Stopped {
				continue
			}
			report.Frames++
			if cur.res.Error != "" {
				report.Skipped++
			} else {
				report.Matched++
			}
			report.Results = append(report.Results, cur.res)

			if err := p.emit(runCtx, cur); err != nil {
				if errors.Is(err, ErrStopped) {
					log.Info("第 %d 帧后停止", cur.frame.Index)
					report.Stopped = true
				} else {
					sinkErr = errors.Wrapf(err, "输出第 %d 帧失败", cur.frame.Index)
				}
				cancel()
			}
		}
	}

	report.Elapsed = time.Since(start)
	log.Info("%s", report)

	switch {
	case sinkErr != nil:
		return report, sinkErr
	case readErr != nil:
		return report, readErr
	case ctx.Err() != nil:
		return report, ctx.Err()
	}
	return report, nil
}

func (p *Pipeline) process(seq int, f *Frame, style annotate.Style, log *logger.Logger) outcome {
	start := time.Now()
	o := outcome{seq: seq, frame: f, res: FrameResult{Index: f.Index}}

	gray := f.Gray
	if gray == nil && f.Image != nil {
		gray = match.GridFromImage(f.Image)
	}
	res, err := p.Matcher.Match(gray)
	o.res.Elapsed = time.Since(start)
	if err != nil {
		log.Warn("第 %d 帧匹配失败: %v", f.Index, err)
		o.res.Error = err.Error()
		return o
	}
	o.res.Result = res

	if f.Image != nil {
		annotated, err := annotate.Annotate(f.Image, res, style)
		if err != nil {
			log.Warn("第 %d 帧标注失败: %v", f.Index, err)
		} else {
			f.Annotated = annotated
		}
	}
	log.Debug("第 %d 帧: %s (%.1fms)", f.Index, res, float64(o.res.Elapsed.Microseconds())/1000)
	return o
}

func (p *Pipeline) emit(ctx context.Context, o outcome) error {
	for _, s := range p.Sinks {
		if err := s.Write(ctx, o.frame, o.res.Result); err != nil {
			return err
		}
	}
	return nil
}
