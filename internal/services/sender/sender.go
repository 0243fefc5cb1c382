// Package sender отправляет почтовые уведомления из очередей брокера.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flexbit-dev/flexbit-api/internal/lib/rabbitmq"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/lib/smtp"
)

// Service отправляет письма по событиям платформы.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, transport smtp.TransportInterface) *Service {
	return &Service{transport: transport, log: log}
}

// SendReceipt отправляет квитанцию об успешной оплате подписки.
func (s *Service) SendReceipt(body []byte) error {
	var message rabbitmq.ReceiptMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Pembayaran berhasil — langganan FlexBit aktif"
	bodyText := fmt.Sprintf(`Halo %s,

Pembayaran Anda telah kami terima.

Nomor pesanan: %s
Paket: %s
Jumlah: Rp %d

Langganan Anda sudah aktif. Selamat berinvestasi!

Tim FlexBit`,
		message.FullName, message.OrderID, message.Tier, message.Amount)

	return s.sendEmail(to, subject, bodyText)
}

// SendPasswordReset отправляет ссылку на сброс пароля. Ссылка
// действительна пять минут.
func (s *Service) SendPasswordReset(body []byte) error {
	var message rabbitmq.PasswordResetMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Atur ulang kata sandi FlexBit"
	bodyText := fmt.Sprintf(`Halo %s,

Kami menerima permintaan untuk mengatur ulang kata sandi akun Anda.
Buka tautan berikut dalam 5 menit:

%s

Jika Anda tidak meminta ini, abaikan email ini.

Tim FlexBit`,
		message.FullName, message.ResetURL)

	return s.sendEmail(to, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			s.log.Debug("smtp close", sl.Err(closeErr))
		}
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
