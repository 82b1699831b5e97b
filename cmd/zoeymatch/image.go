package main

import (
	"flag"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/zoeyai/zoeymatch/internal/logger"
	"github.com/zoeyai/zoeymatch/pkg/config"
	"github.com/zoeyai/zoeymatch/pkg/vision/annotate"
	"github.com/zoeyai/zoeymatch/pkg/vision/cv"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// runImage 用六种方法依次匹配，保存每种方法的标注图和汇总图
func runImage(cfg *config.JobConfig, args []string) error {
	fs := flag.NewFlagSet(config.CmdImage, flag.ExitOnError)
	f := bindFlags(fs, cfg)
	cols := fs.Int("cols", 3, "汇总图每行列数")
	cell := fs.Int("cell", 400, "汇总图单元宽度 (像素)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := prepare(cfg, f); err != nil {
		return err
	}
	log := logger.Default().Named("image")

	frameImg, err := annotate.Load(f.paths.Input)
	if err != nil {
		return err
	}
	patternImg, err := annotate.Load(f.paths.Template)
	if err != nil {
		return err
	}

	frame := match.GridFromImage(frameImg)
	pattern := match.GridFromImage(patternImg)
	log.Info("帧 %dx%d, 模板 %dx%d, 后端 %s", frame.Width, frame.Height, pattern.Width, pattern.Height, cfg.Backend)

	var tiles []image.Image
	var titles []string

	for _, m := range match.Methods() {
		start := time.Now()
		res, err := matchStill(cfg, frame, pattern, m)
		elapsed := time.Since(start)
		if err != nil {
			log.LogMatch(m.String(), false, elapsed, err.Error())
			return err
		}
		log.LogMatch(m.String(), true, elapsed, res.String())

		annotated, err := annotate.Annotate(frameImg, res, annotate.DefaultStyle())
		if err != nil {
			return err
		}
		out := filepath.Join(cfg.OutputDir, fmt.Sprintf("template_match_%s.png", m))
		if err := annotate.Save(out, annotated); err != nil {
			return err
		}
		log.Info("已保存结果为: %s", out)

		if cfg.Display {
			if err := display("Template Matching - "+m.String(), annotated, cfg); err != nil {
				return err
			}
		}

		tiles = append(tiles, annotated)
		titles = append(titles, m.String())
	}

	montage, err := annotate.Montage(tiles, titles, *cols, *cell)
	if err != nil {
		return err
	}
	out := filepath.Join(cfg.OutputDir, "montage.png")
	if err := annotate.Save(out, montage); err != nil {
		return err
	}
	log.Info("结果已保存到 %s", cfg.OutputDir)
	return nil
}

func matchStill(cfg *config.JobConfig, frame, pattern *match.Grid, m match.Method) (*match.MatchResult, error) {
	if cfg.Backend == config.BackendOpenCV {
		return cv.FindBest(frame, pattern, m)
	}
	var opts []match.Option
	if cfg.Workers > 0 {
		opts = append(opts, match.WithWorkers(cfg.Workers))
	}
	return match.MatchOnce(frame, pattern, m, opts...)
}

func display(title string, img image.Image, cfg *config.JobConfig) error {
	mat, err := cv.ImageToMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()
	cv.Show(title, mat, cfg.DisplayScale, cfg.WindowWidth, cfg.WindowHeight, cfg.WaitMs)
	return nil
}
