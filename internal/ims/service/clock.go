package service

import "time"

// Clock 时间源
// 预警快照和过期判断都走这里取时间，测试里可替换成固定时钟
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock 系统时钟
func SystemClock() Clock {
	return systemClock{}
}
