//go:build darwin

// Package permissions 检查截屏所需的系统权限（macOS）
package permissions

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics
#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>

int screenCaptureGranted() {
    if (@available(macOS 10.15, *)) {
        CFArrayRef windowList = CGWindowListCopyWindowInfo(
            kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
            kCGNullWindowID
        );
        if (windowList == NULL) {
            return 0;
        }

        // 未授权时其他进程的窗口名不可见
        CFIndex count = CFArrayGetCount(windowList);
        int hasNames = 0;
        for (CFIndex i = 0; i < count; i++) {
            CFDictionaryRef window = (CFDictionaryRef)CFArrayGetValueAtIndex(windowList, i);
            CFStringRef name = (CFStringRef)CFDictionaryGetValue(window, kCGWindowName);
            if (name != NULL && CFStringGetLength(name) > 0) {
                hasNames = 1;
                break;
            }
        }
        CFRelease(windowList);
        return (count == 0 || hasNames) ? 1 : 0;
    }
    return 1;
}

void openScreenCaptureSettings() {
    NSString *urlString = @"x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture";
    [[NSWorkspace sharedWorkspace] openURL:[NSURL URLWithString:urlString]];
}
*/
import "C"

// ScreenCaptureGranted 是否已授予屏幕录制权限（不触发弹窗）
func ScreenCaptureGranted() bool {
	return C.screenCaptureGranted() == 1
}

// OpenScreenCaptureSettings 打开屏幕录制设置页面
func OpenScreenCaptureSettings() {
	C.openScreenCaptureSettings()
}
