package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"citron/internal/config"
	"citron/internal/model"
	"citron/internal/pkg/logger"
	"citron/internal/pkg/mailer"
	"citron/internal/pkg/markdown"
)

// newsletterTemplate 邮件群发的 HTML 外壳模板
// content 为已渲染的 Markdown 正文，变量可被 custom_template_vars 覆盖
const newsletterTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { font-family: 'Arial', sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f4f4f4; }
    .container { max-width: 600px; margin: 20px auto; background-color: #ffffff; padding: 30px; border-radius: 8px; }
    .header { text-align: center; padding-bottom: 20px; border-bottom: 2px solid #eee; }
    .content { padding: 20px 0; }
    .footer { text-align: center; font-size: 12px; color: #888; padding-top: 20px; border-top: 1px solid #eee; }
    a { color: #007bff; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h2>{{.company_name}}</h2></div>
    <div class="content">{{.content}}</div>
    <div class="footer">
      <p>&copy; {{.current_year}} {{.company_name}}. Tous droits réservés.</p>
      <p><a href="{{.unsubscribe_link}}">Se désabonner</a></p>
    </div>
  </div>
</body>
</html>`

// EmailService 邮件服务：联系表单 + 邮件群发
type EmailService struct {
	sender mailer.Sender
	cfg    *config.MailConfig
	tmpl   *template.Template
}

// NewEmailService 创建邮件服务
func NewEmailService(sender mailer.Sender, cfg *config.MailConfig) *EmailService {
	return &EmailService{
		sender: sender,
		cfg:    cfg,
		tmpl:   template.Must(template.New("newsletter").Parse(newsletterTemplate)),
	}
}

// SendContact 发送联系表单邮件，返回面向用户的状态消息
func (s *EmailService) SendContact(name, email, message string) (string, error) {
	msg := &mailer.Message{
		To:      s.cfg.ProjectEmail,
		Subject: fmt.Sprintf("Nouveau message de contact de %s", name),
		Body:    fmt.Sprintf("Nom: %s\nEmail: %s\nMessage:\n%s", name, email, message),
	}

	if err := s.sender.Send(msg); err != nil {
		logger.Get().Error().Err(err).Str("from", email).Msg("failed to send contact email")
		return fmt.Sprintf("Erreur lors de l'envoi de l'email: %s", err), err
	}
	return "Email envoyé avec succès.", nil
}

// StyleNewsletter 将 Markdown 或 HTML 正文包装成完整的邮件 HTML
// 默认变量 company_name/current_year/unsubscribe_link 可被 customVars 覆盖
func (s *EmailService) StyleNewsletter(content string, customVars map[string]any) (string, error) {
	htmlBody, err := markdown.ToHTML(content)
	if err != nil {
		return "", fmt.Errorf("render newsletter markdown: %w", err)
	}

	vars := map[string]any{
		"content":          template.HTML(htmlBody),
		"company_name":     s.cfg.Newsletter.CompanyName,
		"current_year":     time.Now().Year(),
		"unsubscribe_link": s.cfg.Newsletter.UnsubscribeLink,
	}
	for k, v := range customVars {
		vars[k] = v
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute newsletter template: %w", err)
	}
	return buf.String(), nil
}

// SendNewsletter 向每个订阅者逐一发送，单封失败不中断
func (s *EmailService) SendNewsletter(subject, htmlContent string, subscribers []string) *model.NewsletterReport {
	report := &model.NewsletterReport{Errors: []string{}}

	for _, recipient := range subscribers {
		msg := &mailer.Message{
			To:      recipient,
			Subject: subject,
			HTML:    htmlContent,
		}
		if err := s.sender.Send(msg); err != nil {
			logger.Get().Error().Err(err).Str("recipient", recipient).Msg("failed to send newsletter email")
			report.TotalFailed++
			report.Errors = append(report.Errors, recipient)
			continue
		}
		report.TotalSent++
	}
	return report
}
