package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zoeyai/zoeymatch/pkg/vision/match"
)

// 匹配计算后端
const (
	BackendGo     = "go"
	BackendOpenCV = "opencv"
)

// 子命令名，用作输入路径的键
const (
	CmdShow   = "show"
	CmdImage  = "image"
	CmdVideo  = "video"
	CmdScreen = "screen"
)

// Paths 单个子命令的输入路径
type Paths struct {
	Input    string `json:"input,omitempty"`
	Template string `json:"template,omitempty"`
}

// DefaultPaths 子命令的默认输入路径
func DefaultPaths(cmd string) Paths {
	switch cmd {
	case CmdShow:
		return Paths{Input: "assets/image/mario.png"}
	case CmdImage:
		return Paths{Input: "assets/image/scene_0.png", Template: "assets/image/mario.png"}
	case CmdVideo:
		return Paths{Input: "assets/video/001.mp4", Template: "assets/video/obj.png"}
	case CmdScreen:
		return Paths{Template: "assets/image/mario.png"}
	}
	return Paths{}
}

// JobConfig 匹配任务配置
type JobConfig struct {
	// 输入路径按子命令分别保存
	Paths     map[string]Paths `json:"paths,omitempty"`
	OutputDir string           `json:"output_dir"`
	Output    string           `json:"output"`

	// 匹配
	Method  string `json:"method"`
	Backend string `json:"backend"`
	Workers int    `json:"workers"`

	// 显示
	Display      bool    `json:"display"`
	DisplayScale float64 `json:"display_scale"`
	WindowWidth  int     `json:"window_width"`
	WindowHeight int     `json:"window_height"`
	WaitMs       int     `json:"wait_ms"`

	// 日志
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// DefaultJobConfig 默认任务配置
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		OutputDir:    "output",
		Output:       "output/output.mp4",
		Method:       match.CCoeffNormed.String(),
		Backend:      BackendGo,
		Workers:      0,
		Display:      false,
		DisplayScale: 0.6,
		WindowWidth:  800,
		WindowHeight: 600,
		WaitMs:       1000,
		LogLevel:     "INFO",
		LogFile:      "",
	}
}

// PathsFor 返回子命令的输入路径，未配置的字段使用默认值
func (c *JobConfig) PathsFor(cmd string) Paths {
	p := c.Paths[cmd]
	def := DefaultPaths(cmd)
	if p.Input == "" {
		p.Input = def.Input
	}
	if p.Template == "" {
		p.Template = def.Template
	}
	return p
}

// SetPaths 设置子命令的输入路径，不影响其他子命令
func (c *JobConfig) SetPaths(cmd string, p Paths) {
	if c.Paths == nil {
		c.Paths = make(map[string]Paths)
	}
	c.Paths[cmd] = p
}

// MatchMethod 解析配置中的匹配方法
func (c *JobConfig) MatchMethod() (match.Method, error) {
	return match.ParseMethod(c.Method)
}

// Validate 校验配置
func (c *JobConfig) Validate() error {
	if _, err := c.MatchMethod(); err != nil {
		return err
	}
	if c.Backend != BackendGo && c.Backend != BackendOpenCV {
		return fmt.Errorf("不支持的计算后端: %s", c.Backend)
	}
	if c.Workers < 0 {
		return fmt.Errorf("并发数不能为负: %d", c.Workers)
	}
	if c.DisplayScale <= 0 {
		return fmt.Errorf("显示缩放比例必须大于 0: %v", c.DisplayScale)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("窗口尺寸非法: %dx%d", c.WindowWidth, c.WindowHeight)
	}
	return nil
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return NewManagerWithDir(filepath.Join(homeDir, ".zoeymatch"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置，文件中缺失的字段使用默认值
func (m *Manager) Load() (*JobConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultJobConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultJobConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultJobConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultJobConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *JobConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*JobConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *JobConfig) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
