package mailer

import (
	"gopkg.in/gomail.v2"

	"citron/internal/config"
)

// Message 一封待发送的邮件
type Message struct {
	To      string
	Subject string
	Body    string // 纯文本正文
	HTML    string // HTML 正文（非空时优先于 Body）
}

// Sender 邮件发送接口
// handler/service 依赖此接口，测试中可替换为 fake
type Sender interface {
	Send(msg *Message) error
}

// SMTPSender 基于 gomail 的 SMTP 发送器
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender 创建 SMTP 发送器
// 每次 Send 建立一次连接，网关的邮件量级下无需连接复用
func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseSSL

	return &SMTPSender{
		dialer: dialer,
		from:   cfg.DefaultSender,
	}
}

// Send 发送邮件
func (s *SMTPSender) Send(msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Body)
	}

	return s.dialer.DialAndSend(m)
}
