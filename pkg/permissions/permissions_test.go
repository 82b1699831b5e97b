//go:build !darwin

package permissions

import "testing"

func TestEnsureScreenCapture(t *testing.T) {
	if !ScreenCaptureGranted() {
		t.Fatal("非 macOS 系统应视为已授权")
	}
	if err := EnsureScreenCapture(); err != nil {
		t.Errorf("期望无错误, 实际 %v", err)
	}
}
