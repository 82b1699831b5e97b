package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/zoeyai/zoeymatch/internal/logger"
	"github.com/zoeyai/zoeymatch/pkg/config"
	"github.com/zoeyai/zoeymatch/pkg/video"
	"github.com/zoeyai/zoeymatch/pkg/vision/annotate"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// runVideo 逐帧匹配视频，输出标注后的视频
func runVideo(cfg *config.JobConfig, args []string) error {
	fs := flag.NewFlagSet(config.CmdVideo, flag.ExitOnError)
	f := bindFlags(fs, cfg)
	reportPath := fs.String("report", "", "运行报告输出路径 (JSON)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := prepare(cfg, f); err != nil {
		return err
	}
	log := logger.Default().Named("video")

	patternImg, err := annotate.Load(f.paths.Template)
	if err != nil {
		return err
	}
	locator, err := newLocator(cfg, match.GridFromImage(patternImg))
	if err != nil {
		return err
	}

	src, err := video.OpenCaptureSource(f.paths.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	info := src.Info()
	log.Info("视频 %s: %dx%d @ %.2f fps", f.paths.Input, info.Width, info.Height, info.FPS)

	writer := video.NewWriterSink(cfg.Output, info.FPS)
	defer writer.Close()
	sinks := []video.Sink{writer}
	if cfg.Display {
		window := video.NewWindowSink("Template Matching", cfg.WindowWidth, cfg.WindowHeight)
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
	if err := runPipeline(p, *reportPath); err != nil {
		return err
	}
	log.Info("已保存视频: %s", cfg.Output)
	return nil
}

// runPipeline 运行流水线，Ctrl+C 时停止读取并输出已处理的部分
func runPipeline(p *video.Pipeline, reportPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := p.Run(ctx)
	if report != nil {
		fmt.Println(report)
		if reportPath != "" {
			if werr := writeReport(reportPath, report); werr != nil {
				logger.Warn("保存报告失败: %v", werr)
			}
		}
	}
	if err != nil && ctx.Err() != nil {
		logger.Info("已中断")
		return nil
	}
	return err
}

func writeReport(path string, report *video.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
