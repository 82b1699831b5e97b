//go:build !darwin

// Package permissions 检查截屏所需的系统权限
package permissions

// ScreenCaptureGranted 非 macOS 系统不需要额外授权
func ScreenCaptureGranted() bool {
	return true
}

// OpenScreenCaptureSettings 非 macOS 系统无操作
func OpenScreenCaptureSettings() {}
