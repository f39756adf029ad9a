package sendgrid

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers transactional mail through SendGrid.
type Mailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func New(apiKey, fromAddress string) *Mailer {
	return &Mailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail("Quillist", fromAddress),
	}
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	message := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail("", to), "", htmlBody)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	return nil
}
