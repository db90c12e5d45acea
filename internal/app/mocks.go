package app

import "time"

// NoopEmailSender используется для локальной разработки без SMTP.
type NoopEmailSender struct{}

func (m *NoopEmailSender) SendPaymentReceipt(to, name, planName string, amount float64, currency string, countries int, endDate time.Time) error {
	return nil
}

func (m *NoopEmailSender) SendCancellationNotice(to, name, planName string) error {
	return nil
}
