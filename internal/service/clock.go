package service

import "time"

// clock 默认时钟，精度与datetime(3)一致，不带单调时钟读数
func clock() time.Time {
	return time.Now().Truncate(time.Millisecond)
}
