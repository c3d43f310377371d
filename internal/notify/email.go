package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"invtracker/internal/assert"
	"invtracker/internal/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("invtracker.internal.notify")

const report_email_send = "email.send"

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Email sends messages as plain text emails, the destination is the
// recipient address.
type Email struct {
	config  SmtpConfig
	subject string
	tel     telemetry.API
}

func NewEmail(config SmtpConfig, subject string, tel telemetry.API) Email {
	assert.NotEmptyStr("smtp server", config.Server)
	assert.NotEmptyStr("smtp email address", config.EmailAddress)
	assert.NotNil("tel", tel)

	if subject == "" {
		subject = "Inventory Update"
	}
	return Email{
		config:  config,
		subject: subject,
		tel:     telemetry.NewScopedAPI("notify", tel),
	}
}

func (e Email) Send(ctx context.Context, destination, text string) error {
	_, span := tracer.Start(ctx, "Email.Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Inventory Tracker <%s>", e.config.EmailAddress)
	mail.To = []string{destination}
	mail.Subject = e.subject
	mail.Text = []byte(text)

	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		e.tel.ReportBroken(report_email_send, err, destination)
		return err
	}
	return nil
}
