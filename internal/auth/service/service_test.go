package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/mail"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/internal/auth/store/drivers/sqlite"
	"github.com/onevision/baselogin/pkg/cryptox"
	"github.com/onevision/baselogin/pkg/idx"
	"github.com/onevision/baselogin/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "baselogin-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

var testSecret = []byte("test-secret-0123456789abcdefghij")

const testIssuer = "baselogin-test"

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) (*jwtx.Signer, *jwtx.Verifier) {
	t.Helper()

	signer, err := jwtx.NewSigner(testSecret, testIssuer)
	require.NoError(t, err)
	return signer, jwtx.NewVerifier(testSecret, testIssuer)
}

// captureSender records mail instead of delivering it.
type captureSender struct {
	mu    sync.Mutex
	mails []capturedMail
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mails = append(c.mails, capturedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mails)
}

func (c *captureSender) last(t *testing.T) capturedMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.mails)
	return c.mails[len(c.mails)-1]
}

func newTestMailer() (*mail.Mailer, *captureSender) {
	sender := &captureSender{}
	return mail.NewMailer(sender, "http://localhost:3000"), sender
}

// tokenFromMail pulls the raw token out of the link in a captured email body.
func tokenFromMail(t *testing.T, body string) string {
	t.Helper()

	_, rest, found := strings.Cut(body, "token=")
	require.True(t, found, "mail body has no token link")
	end := strings.IndexByte(rest, '"')
	require.Greater(t, end, 0)
	return rest[:end]
}

func seedCompany(t *testing.T, st store.Store, emailDomain string, maxUsers int) domain.Company {
	t.Helper()

	c := domain.Company{
		ID:       idx.New().String(),
		Name:     emailDomain,
		Domain:   emailDomain,
		MaxUsers: maxUsers,
	}
	require.NoError(t, st.Companies().CreateCompany(context.Background(), c))
	return c
}

func seedUser(t *testing.T, st store.Store, companyID, email, password string, role domain.Role, verified bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:            idx.New().String(),
		CompanyID:     companyID,
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: verified,
		Role:          role,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	if verified {
		require.NoError(t, st.Users().MarkEmailVerified(context.Background(), u.ID))
	}
	return u
}

func seedInvite(t *testing.T, st store.Store, companyID, email, invitedBy string, role domain.Role) domain.Invite {
	t.Helper()

	inv := domain.Invite{
		ID:        idx.New().String(),
		CompanyID: companyID,
		Email:     email,
		Status:    domain.InvitePending,
		InvitedBy: invitedBy,
		Role:      role,
		InvitedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(context.Background(), inv))
	return inv
}
