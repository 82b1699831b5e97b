package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zoeyai/zoeymatch/internal/logger"
	"github.com/zoeyai/zoeymatch/pkg/config"
	"github.com/zoeyai/zoeymatch/pkg/video"
	"github.com/zoeyai/zoeymatch/pkg/vision/cv"
	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type command struct {
	name string
	desc string
	run  func(cfg *config.JobConfig, args []string) error
}

var commands = []command{
	{config.CmdShow, "读取并显示图像，同时保存副本", runShow},
	{config.CmdImage, "用六种方法在图像中匹配模板，输出标注图和汇总图", runImage},
	{config.CmdVideo, "逐帧匹配视频并输出标注视频", runVideo},
	{config.CmdScreen, "对屏幕截图逐帧匹配", runScreen},
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "-version", "--version", "version":
		printVersion()
		return
	case "-help", "--help", "-h", "help":
		printHelp()
		return
	}

	// 加载配置，命令行参数优先级高于配置文件
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}

	for _, c := range commands {
		if c.name != os.Args[1] {
			continue
		}
		if err := c.run(cfg, os.Args[2:]); err != nil {
			logger.Error("%s 失败: %v", c.name, err)
			logger.Default().Close()
			os.Exit(1)
		}
		logger.Default().Close()
		return
	}

	fmt.Printf("[ERROR] 未知命令: %s\n\n", os.Args[1])
	printHelp()
	os.Exit(2)
}

// cmdFlags 单个子命令解析出的路径参数
type cmdFlags struct {
	name  string
	paths config.Paths
	save  *bool
}

// bindFlags 注册各命令共用的参数，路径按子命令取默认值，其余结果直接写入 cfg
func bindFlags(fs *flag.FlagSet, cfg *config.JobConfig) *cmdFlags {
	f := &cmdFlags{name: fs.Name(), paths: cfg.PathsFor(fs.Name())}
	fs.StringVar(&f.paths.Template, "template", f.paths.Template, "模板图像路径")
	fs.StringVar(&f.paths.Input, "input", f.paths.Input, "输入图像或视频路径")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "输出目录")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "输出视频路径")
	fs.StringVar(&cfg.Method, "method", cfg.Method, "匹配方法 (TM_SQDIFF, TM_SQDIFF_NORMED, TM_CCORR, TM_CCORR_NORMED, TM_CCOEFF, TM_CCOEFF_NORMED)")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "计算后端 (go, opencv)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "并发数，0 表示自动")
	fs.BoolVar(&cfg.Display, "display", cfg.Display, "在窗口中显示结果")
	fs.Float64Var(&cfg.DisplayScale, "scale", cfg.DisplayScale, "显示缩放比例")
	fs.IntVar(&cfg.WaitMs, "wait", cfg.WaitMs, "每张结果图的显示时长 (毫秒)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "日志级别 (DEBUG, INFO, WARN, ERROR)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "日志文件路径")
	f.save = fs.Bool("save", false, "保存当前参数为默认配置")
	return f
}

// prepare 校验配置、初始化日志并按需保存配置，路径只写入当前子命令
func prepare(cfg *config.JobConfig, f *cmdFlags) error {
	cfg.SetPaths(f.name, f.paths)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Default()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := log.SetFile(true, cfg.LogFile); err != nil {
			return err
		}
	}

	if *f.save {
		if err := config.Save(cfg); err != nil {
			log.Warn("保存配置失败: %v", err)
		} else {
			log.Info("配置已保存到 %s", config.GetDefaultManager().GetConfigFile())
		}
	}
	return nil
}

// newLocator 按配置的后端创建匹配器
func newLocator(cfg *config.JobConfig, pattern *match.Grid) (video.Locator, error) {
	method, err := cfg.MatchMethod()
	if err != nil {
		return nil, err
	}
	if cfg.Backend == config.BackendOpenCV {
		return cv.NewMatcher(pattern, method)
	}
	// 帧间已并发，单帧内部不再拆分
	return match.NewMatcher(pattern, method, match.WithWorkers(1))
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("zoeymatch v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("zoeymatch - 模板匹配工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  zoeymatch <命令> [选项]")
	fmt.Println()
	fmt.Println("命令:")
	for _, c := range commands {
		fmt.Printf("  %-8s %s\n", c.name, c.desc)
	}
	fmt.Println()
	fmt.Println("通用选项:")
	fmt.Println("  -template string    模板图像路径")
	fmt.Println("  -input string       输入图像或视频路径")
	fmt.Println("  -output-dir string  输出目录")
	fmt.Println("  -output string      输出视频路径")
	fmt.Println("  -method string      匹配方法 (默认 TM_CCOEFF_NORMED)")
	fmt.Println("  -backend string     计算后端 go 或 opencv")
	fmt.Println("  -display            在窗口中显示结果")
	fmt.Println("  -save               保存当前参数为默认配置 (路径按命令分别保存)")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 六种方法对比")
	fmt.Println("  zoeymatch image -input assets/image/scene_0.png -template assets/image/mario.png")
	fmt.Println()
	fmt.Println("  # 视频逐帧匹配并显示")
	fmt.Println("  zoeymatch video -input assets/video/001.mp4 -template assets/video/obj.png -display")
	fmt.Println()
	fmt.Println("  # 屏幕匹配 10 帧")
	fmt.Println("  zoeymatch screen -template button.png -frames 10 -interval 500ms")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}
