package main

import (
	"context"
	"flag"
	"image"
	"time"

	"github.com/zoeyai/zoeymatch/internal/logger"
	"github.com/zoeyai/zoeymatch/pkg/config"
	"github.com/zoeyai/zoeymatch/pkg/permissions"
	"github.com/zoeyai/zoeymatch/pkg/video"
	"github.com/zoeyai/zoeymatch/pkg/vision/annotate"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// runScreen 定时截屏并匹配模板
func runScreen(cfg *config.JobConfig, args []string) error {
	fs := flag.NewFlagSet(config.CmdScreen, flag.ExitOnError)
	f := bindFlags(fs, cfg)
	frames := fs.Int("frames", 10, "截屏帧数，0 表示直到 Ctrl+C")
	interval := fs.Duration("interval", time.Second, "截屏间隔")
	var region image.Rectangle
	fs.IntVar(&region.Min.X, "x", 0, "截屏区域左上角 X")
	fs.IntVar(&region.Min.Y, "y", 0, "截屏区域左上角 Y")
	width := fs.Int("width", 0, "截屏区域宽度，0 表示全屏")
	height := fs.Int("height", 0, "截屏区域高度，0 表示全屏")
	reportPath := fs.String("report", "", "运行报告输出路径 (JSON)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := prepare(cfg, f); err != nil {
		return err
	}
	region.Max = region.Min.Add(image.Pt(*width, *height))
	log := logger.Default().Named("screen")

	if err := permissions.EnsureScreenCapture(); err != nil {
		return err
	}

	patternImg, err := annotate.Load(f.paths.Template)
	if err != nil {
		return err
	}
	locator, err := newLocator(cfg, match.GridFromImage(patternImg))
	if err != nil {
		return err
	}

	src := video.NewScreenSource(*frames, *interval, region)
	defer src.Close()

	sinks := []video.Sink{video.FuncSink(func(ctx context.Context, f *video.Frame, res *match.MatchResult) error {
		if res == nil {
			return nil
		}
		c := res.Center()
		if !region.Empty() {
			c = c.Add(match.Point{X: region.Min.X, Y: region.Min.Y})
		}
		log.Info("第 %d 帧: 中心 (%d, %d), 得分 %.4f", f.Index, c.X, c.Y, res.Score)
		return nil
	})}
	if cfg.Display {
		window := video.NewWindowSink("Screen", cfg.WindowWidth, cfg.WindowHeight)
		defer window.Close()
		sinks = append(sinks, window)
	}

	p := &video.Pipeline{
		Matcher: locator,
		Source:  src,
		Sinks:   sinks,
		Workers: cfg.Workers,
		Logger:  log,
	}
	return runPipeline(p, *reportPath)
}
