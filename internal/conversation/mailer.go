package conversation

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	apperrors "github.com/trainchat/transit-bot-go/internal/errors"
	"github.com/trainchat/transit-bot-go/internal/model"
)

// DisabledMailer rejects every relay. Used when no mail credential is
// configured; the feedback handler turns the failure into an apology.
type DisabledMailer struct{}

func (DisabledMailer) Relay(context.Context, *model.App, *model.User, string) error {
	return apperrors.Internal("feedback relay is not configured")
}

// ResendMailer relays user feedback to the address configured per app.
type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Relay(ctx context.Context, app *model.App, user *model.User, text string) error {
	from := user.Profile.Name(user.UserID)
	params := &resend.SendEmailRequest{
		From:    app.Config.Feedback.From,
		To:      []string{app.Config.Feedback.To},
		Subject: fmt.Sprintf("Bot feedback from %s", from),
		Text:    fmt.Sprintf("App: %s\nUser: %s (%s)\n\n%s", app.ID, from, user.UserID, text),
	}
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return apperrors.External("resend", err)
	}
	return nil
}
