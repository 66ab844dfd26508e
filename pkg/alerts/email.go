package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// EmailNotifier sends alert reports through an SMTP relay. Each Send
// dials a fresh connection and releases it on every exit path.
type EmailNotifier struct {
	host       string
	port       int
	from       string
	password   string
	recipients []string
	threshold  int // fallback low-stock threshold shown in the report
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(host string, port int, from, password string, recipients []string, fallbackThreshold int) *EmailNotifier {
	return &EmailNotifier{
		host:       host,
		port:       port,
		from:       from,
		password:   password,
		recipients: recipients,
		threshold:  fallbackThreshold,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Send(ctx context.Context, n Notification) error {
	msg := mail.NewMsg()
	if err := msg.From(e.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(e.recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(Subject(n.Kind))
	msg.SetBodyString(mail.TypeTextPlain, EmailBody(n.Drugs, n.Kind, n.Time, e.threshold))

	client, err := mail.NewClient(e.host,
		mail.WithPort(e.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.from),
		mail.WithPassword(e.password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10*time.Second),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}
	return nil
}
