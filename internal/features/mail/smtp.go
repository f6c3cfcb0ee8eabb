package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go-eventops/internal/config"
)

type SMTPSender struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTPSender(cfg *config.Config) Sender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	auth := smtp.PlainAuth(
		"",
		s.username,
		s.password,
		s.host,
	)

	headers := map[string]string{
		"From":         msg.From,
		"To":           strings.Join(msg.To, ", "),
		"Subject":      msg.Subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}

	body := ""
	for k, v := range headers {
		body += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	body += "\r\n" + msg.HtmlBody

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	return smtp.SendMail(addr, auth, msg.From, msg.To, []byte(body))
}
