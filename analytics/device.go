package analytics

import "regexp"

// Device names reported in the "device" property.
const (
	DeviceAndroid = "android"
	DeviceIOS     = "ios"
	DeviceWindows = "windows"
	DeviceMacOS   = "macos"
	DeviceLinux   = "linux"
	DeviceWeb     = "web"
)

// Order matters: Android user agents also mention Linux, and iPad agents
// mention Mac OS.
var devicePatterns = []struct {
	re     *regexp.Regexp
	device string
}{
	{regexp.MustCompile(`(?i)android`), DeviceAndroid},
	{regexp.MustCompile(`(?i)iphone|ipad|ipod`), DeviceIOS},
	{regexp.MustCompile(`(?i)windows`), DeviceWindows},
	{regexp.MustCompile(`(?i)mac os`), DeviceMacOS},
	{regexp.MustCompile(`(?i)linux`), DeviceLinux},
}

// DetectDevice classifies a user agent string.
func DetectDevice(userAgent string) string {
	for _, p := range devicePatterns {
		if p.re.MatchString(userAgent) {
			return p.device
		}
	}
	return DeviceWeb
}
