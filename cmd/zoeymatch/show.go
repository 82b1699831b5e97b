package main

import (
	"flag"
	"path/filepath"

	"github.com/zoeyai/zoeymatch/internal/logger"
	"github.com/zoeyai/zoeymatch/pkg/config"
	"github.com/zoeyai/zoeymatch/pkg/vision/annotate"
	"github.com/zoeyai/zoeymatch/pkg/vision/cv"
)

// runShow 读取图像，保存副本，可选显示直到按键
func runShow(cfg *config.JobConfig, args []string) error {
	fs := flag.NewFlagSet(config.CmdShow, flag.ExitOnError)
	f := bindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := prepare(cfg, f); err != nil {
		return err
	}
	log := logger.Default().Named("show")

	img, err := annotate.Load(f.paths.Input)
	if err != nil {
		return err
	}
	b := img.Bounds()
	log.Info("已读取 %s (%dx%d)", f.paths.Input, b.Dx(), b.Dy())

	out := filepath.Join(cfg.OutputDir, filepath.Base(f.paths.Input))
	if err := annotate.Save(out, img); err != nil {
		return err
	}
	log.Info("已保存到 %s", out)

	if cfg.Display {
		mat, err := cv.ImageToMat(img)
		if err != nil {
			return err
		}
		defer mat.Close()
		cv.Show("Image", mat, cfg.DisplayScale, cfg.WindowWidth, cfg.WindowHeight, 0)
	}
	return nil
}
