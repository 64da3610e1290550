// Package session owns the signed-in state of the client: it restores
// the persisted session at startup, signs users in and out, and keeps the
// API client, the keyring and the badge center in step with each other.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/model"
)

// summaryTimeLayout is the wire format of the daily summary time.
const summaryTimeLayout = "15:04"

// logoutTimeout bounds the best-effort server logout.
const logoutTimeout = 5 * time.Second

// Client is the slice of *api.Client the manager needs.
type Client interface {
	Login(ctx context.Context, email, password string) (model.Session, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (model.UserProfile, error)
	ChangePassword(ctx context.Context, req api.ChangePasswordRequest) error
	SetSummaryTime(ctx context.Context, hhmm string) error
	SetToken(token string)
}

// Credentials persists the session between runs. *credential.Store
// satisfies it.
type Credentials interface {
	Load() (model.Session, error)
	Save(s model.Session) error
	Clear() error
}

// Notifier is started for every live session. *notify.Center satisfies it.
type Notifier interface {
	Start(s model.Session) error
	Stop()
}

// Cache holds per-user local data. It may be nil.
type Cache interface {
	Clear(ctx context.Context) error
}

// Manager is the single writer of the process session.
type Manager struct {
	client   Client
	creds    Credentials
	notifier Notifier
	cache    Cache

	mu      sync.Mutex
	current model.Session
	profile *model.UserProfile
}

// NewManager creates a signed-out manager.
func NewManager(client Client, creds Credentials, notifier Notifier, cache Cache) *Manager {
	return &Manager{
		client:   client,
		creds:    creds,
		notifier: notifier,
		cache:    cache,
	}
}

// Current returns the live session; the zero Session when signed out.
func (m *Manager) Current() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Restore loads the persisted session once at startup. When a token is
// stored it is installed and badge polling starts. It reports whether a
// session was restored.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	sess, err := m.creds.Load()
	if err != nil {
		return false, fmt.Errorf("restoring session: %w", err)
	}
	if !sess.Active() {
		return false, nil
	}

	m.activate(sess)
	log.Printf("session: restored %s session for %s", sess.Role, sess.OrganizationName)
	return true, nil
}

// SignIn exchanges credentials for a session, persists it and starts
// badge polling. Any live session is signed out first.
func (m *Manager) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.Session{}, &api.ValidationError{Message: "Email and password are required"}
	}

	if m.Current().Active() {
		m.SignOut(ctx)
	}

	sess, err := m.client.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, fmt.Errorf("signing in: %w", err)
	}
	if err := m.creds.Save(sess); err != nil {
		// The session still works for this run.
		log.Printf("session: persisting credentials: %v", err)
	}

	m.activate(sess)
	log.Printf("session: signed in as %s of %s", sess.Role, sess.OrganizationName)
	return sess, nil
}

func (m *Manager) activate(sess model.Session) {
	m.mu.Lock()
	m.current = sess
	m.profile = nil
	m.mu.Unlock()

	m.client.SetToken(sess.Token)
	if err := m.notifier.Start(sess); err != nil {
		log.Printf("session: starting notifications: %v", err)
	}
}

// SignOut tears the session down in a fixed order: stop polling, tell the
// server (best effort), drop the token, then clear persisted and cached
// state. It never fails; teardown errors are logged.
func (m *Manager) SignOut(ctx context.Context) {
	m.notifier.Stop()

	if m.Current().Active() {
		lctx, cancel := context.WithTimeout(ctx, logoutTimeout)
		if err := m.client.Logout(lctx); err != nil {
			log.Printf("session: server logout: %v", err)
		}
		cancel()
	}

	m.teardown(ctx)
	log.Printf("session: signed out")
}

// Expire handles a token the server no longer accepts. It tears the
// session down like SignOut but does not call the server.
func (m *Manager) Expire(ctx context.Context) {
	if !m.Current().Active() {
		return
	}
	m.notifier.Stop()
	m.teardown(ctx)
	log.Printf("session: expired")
}

func (m *Manager) teardown(ctx context.Context) {
	m.client.SetToken("")

	m.mu.Lock()
	m.current = model.Session{}
	m.profile = nil
	m.mu.Unlock()

	var errs []error
	if err := m.creds.Clear(); err != nil {
		errs = append(errs, err)
	}
	if m.cache != nil {
		if err := m.cache.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Printf("session: clearing local state: %v", err)
	}
}

// HandleError expires the session when err is an AuthError and reports
// whether it did.
func (m *Manager) HandleError(ctx context.Context, err error) bool {
	if !api.IsAuthError(err) {
		return false
	}
	m.Expire(ctx)
	return true
}

// Profile returns the signed-in user's profile, fetching it once per
// session.
func (m *Manager) Profile(ctx context.Context) (model.UserProfile, error) {
	m.mu.Lock()
	if m.profile != nil {
		p := *m.profile
		m.mu.Unlock()
		return p, nil
	}
	m.mu.Unlock()

	p, err := m.client.CurrentUser(ctx)
	if err != nil {
		return model.UserProfile{}, err
	}

	m.mu.Lock()
	if m.current.Active() {
		m.profile = &p
	}
	m.mu.Unlock()
	return p, nil
}

// ChangePassword validates the request locally before sending it.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	switch {
	case oldPassword == "" || newPassword == "" || confirm == "":
		return &api.ValidationError{Message: "All fields are required"}
	case newPassword != confirm:
		return &api.ValidationError{Message: "New passwords do not match"}
	}

	err := m.client.ChangePassword(ctx, api.ChangePasswordRequest{
		OldPassword:     oldPassword,
		NewPassword:     newPassword,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	return nil
}

// SetSummaryTime sets when the manager's daily summary is sent. hhmm is
// a 24-hour time such as "8:30" or "17:05".
func (m *Manager) SetSummaryTime(ctx context.Context, hhmm string) error {
	if !m.Current().IsManager() {
		return &api.ValidationError{Message: "Only managers have a daily summary"}
	}
	t, err := time.Parse(summaryTimeLayout, normalizeClock(hhmm))
	if err != nil {
		return &api.ValidationError{Message: fmt.Sprintf("%q is not a time of day (HH:MM)", hhmm)}
	}
	if err := m.client.SetSummaryTime(ctx, t.Format(summaryTimeLayout)); err != nil {
		return fmt.Errorf("setting summary time: %w", err)
	}
	return nil
}

// normalizeClock pads a single-digit hour so "8:30" parses as "08:30".
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ':'); i == 1 {
		return "0" + s
	}
	return s
}
