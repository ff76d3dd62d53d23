package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer renders the flow-specific emails and hands them to a Sender. Links
// are built against the frontend base URL so the emails land on the right
// pages regardless of environment.
type Mailer struct {
	sender Sender
	appURL string
}

// NewMailer creates a Mailer. appURL is the frontend base URL without a
// trailing slash, e.g. "https://app.example.com".
func NewMailer(sender Sender, appURL string) *Mailer {
	return &Mailer{sender: sender, appURL: appURL}
}

// SendConfirmation sends the email-confirmation mail after sign-up.
func (m *Mailer) SendConfirmation(ctx context.Context, to, companyName, token string) error {
	link := m.link("/confirm", token)
	body, err := render("confirm_email.html", map[string]string{
		"Link":        link,
		"CompanyName": companyName,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, to, "Confirm your email", body)
}

// SendMagicLink sends a passwordless sign-in link.
func (m *Mailer) SendMagicLink(ctx context.Context, to, token string) error {
	link := m.link("/magic", token)
	body, err := render("magic_link.html", map[string]string{
		"Link": link,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, to, "Your sign-in link", body)
}

// SendInvite sends a team-invite mail to a prospective member.
func (m *Mailer) SendInvite(ctx context.Context, to, companyName, inviterEmail, token string) error {
	link := m.link("/accept-invite", token)
	body, err := render("invite.html", map[string]string{
		"Link":         link,
		"CompanyName":  companyName,
		"InviterEmail": inviterEmail,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, to, fmt.Sprintf("You're invited to join %s", companyName), body)
}

// SendInviteAccepted notifies the inviter that their invite was accepted.
func (m *Mailer) SendInviteAccepted(ctx context.Context, to, memberEmail, companyName string) error {
	body, err := render("invite_accepted.html", map[string]string{
		"MemberEmail": memberEmail,
		"CompanyName": companyName,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, to, fmt.Sprintf("%s joined %s", memberEmail, companyName), body)
}

// SendPasswordReset sends a single-use password reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	link := m.link("/reset-password", token)
	body, err := render("password_reset.html", map[string]string{
		"Link": link,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, to, "Reset your password", body)
}

func (m *Mailer) link(path, token string) string {
	return m.appURL + path + "?token=" + url.QueryEscape(token)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}
	return buf.String(), nil
}
