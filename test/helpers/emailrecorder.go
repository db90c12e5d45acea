package helpers

import (
	"sync"
	"time"
)

// EmailRecord - одно "отправленное" письмо
type EmailRecord struct {
	Kind     string // receipt | cancellation
	To       string
	PlanName string
}

// RecordingEmailSender копит письма в памяти вместо реальной доставки,
// чтобы тесты могли проверять факт отправки. Потокобезопасен: письма
// уходят из горутин сервиса.
type RecordingEmailSender struct {
	mu      sync.Mutex
	records []EmailRecord
}

func NewRecordingEmailSender() *RecordingEmailSender {
	return &RecordingEmailSender{}
}

func (r *RecordingEmailSender) SendPaymentReceipt(to, name, planName string, amount float64, currency string, countries int, endDate time.Time) error {
	r.record(EmailRecord{Kind: "receipt", To: to, PlanName: planName})
	return nil
}

func (r *RecordingEmailSender) SendCancellationNotice(to, name, planName string) error {
	r.record(EmailRecord{Kind: "cancellation", To: to, PlanName: planName})
	return nil
}

func (r *RecordingEmailSender) record(rec EmailRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// HasCancellationNotice - дошло ли уведомление об отмене на адрес
func (r *RecordingEmailSender) HasCancellationNotice(to string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Kind == "cancellation" && rec.To == to {
			return true
		}
	}
	return false
}

// HasReceipt - дошла ли квитанция об оплате на адрес
func (r *RecordingEmailSender) HasReceipt(to string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Kind == "receipt" && rec.To == to {
			return true
		}
	}
	return false
}
