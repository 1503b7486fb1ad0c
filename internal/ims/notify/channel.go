// Package notify 通知通道抽象。
// 预警引擎只依赖 Channel 接口，邮件之外的通道可以直接替换进来。
package notify

// Channel 单个收件人的投递通道
// 投递失败只返回error，由调用方决定记日志还是重试，不影响业务事务
type Channel interface {
	Send(recipient, subject, body string) error
}

// NoopChannel 未配置SMTP时的空实现
type NoopChannel struct{}

func (NoopChannel) Send(recipient, subject, body string) error {
	return nil
}
