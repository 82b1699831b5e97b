package permissions

import "errors"

// ErrScreenCaptureDenied 缺少屏幕录制权限
var ErrScreenCaptureDenied = errors.New("缺少屏幕录制权限: 请在 系统设置 > 隐私与安全性 > 屏幕录制 中授权，授权后需要重启终端")

// EnsureScreenCapture 检查屏幕录制权限，未授权时打开设置页面并返回错误
func EnsureScreenCapture() error {
	if ScreenCaptureGranted() {
		return nil
	}
	OpenScreenCaptureSettings()
	return ErrScreenCaptureDenied
}
