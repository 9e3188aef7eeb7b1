package utils

import (
	"time"
)

// DisplayTimeLayout 展示用时间格式，例如 "05/03/2024 · 2:30 PM"
const DisplayTimeLayout = "02/01/2006 · 3:04 PM"

// FormatDisplayTime 把存储的 UTC 时间转换到展示时区
func FormatDisplayTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayTimeLayout)
}
