package notify

import (
	"fmt"
	"net/smtp"
)

// EmailChannel SMTP邮件通道
type EmailChannel struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewEmailChannel 创建SMTP邮件通道
func NewEmailChannel(host, port, username, password, from string) (*EmailChannel, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if port == "" {
		port = "587"
	}
	if from == "" {
		from = username
	}
	return &EmailChannel{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}, nil
}

func (c *EmailChannel) Send(recipient, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", c.host, c.port)
	auth := smtp.PlainAuth("", c.username, c.password, c.host)

	msg := []byte(
		"From: " + c.from + "\r\n" +
			"To: " + recipient + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, c.from, []string{recipient}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
