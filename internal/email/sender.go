package email

import (
	"fmt"
	"time"

	"jobatlas_backend/internal/config"

	"gopkg.in/gomail.v2"
)

// Sender отправляет транзакционные письма движка подписок.
// Все вызовы best-effort: ошибка отправки логируется вызывающим
// и никогда не проваливает основную операцию.
type Sender interface {
	SendPaymentReceipt(to, name, planName string, amount float64, currency string, countries int, endDate time.Time) error
	SendCancellationNotice(to, name, planName string) error
}

// SMTPSender - реализация через gomail
type SMTPSender struct {
	cfg *config.Config
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendPaymentReceipt(to, name, planName string, amount float64, currency string, countries int, endDate time.Time) error {
	body := fmt.Sprintf(
		"Hi %s,<br><br>Your payment of %.2f %s was received.<br>"+
			"Plan: %s, countries: %d.<br>"+
			"Job visibility is active until %s.<br><br>JobAtlas",
		name, amount, currency, planName, countries, endDate.Format("2 January 2006"),
	)
	return s.send(to, "Payment received", body)
}

func (s *SMTPSender) SendCancellationNotice(to, name, planName string) error {
	body := fmt.Sprintf(
		"Hi %s,<br><br>Your %s subscription has been cancelled. "+
			"No further charges will be made.<br><br>JobAtlas",
		name, planName,
	)
	return s.send(to, "Subscription cancelled", body)
}

func (s *SMTPSender) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.Email.FromEmail, s.cfg.Email.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(
		s.cfg.Email.SMTPHost,
		s.cfg.Email.SMTPPort,
		s.cfg.Email.SMTPUsername,
		s.cfg.Email.SMTPPassword,
	)

	return d.DialAndSend(m)
}
