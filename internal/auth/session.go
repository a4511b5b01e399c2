package auth

import (
	"crypto/sha256"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	SessionName = "resale_session"

	userIdKey = "user_id"

	sessionMaxAge = 86400 * 7
)

// DeriveKey stretches an arbitrary secret into a 32 byte key usable for both
// signing and AES encryption.
func DeriveKey(secret, purpose string) []byte {
	hash := sha256.Sum256([]byte(secret + purpose))
	return hash[:]
}

func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(DeriveKey(secret, "auth"), DeriveKey(secret, "encryption"))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionManager keeps the signed-in user and one-shot flash messages in a
// cookie session.
type SessionManager struct {
	store sessions.Store
}

func NewSessionManager(store sessions.Store) *SessionManager {
	return &SessionManager{store: store}
}

func (m *SessionManager) session(r *http.Request) *sessions.Session {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		// A cookie that no longer decodes (e.g. after a key rotation) yields a
		// fresh session, which is what we want.
		slog.Warn("discarding unreadable session", "error", err)
	}
	return session
}

func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userId uuid.UUID) error {
	session := m.session(r)
	session.Values[userIdKey] = userId.String()
	return session.Save(r, w)
}

func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session := m.session(r)
	delete(session.Values, userIdKey)
	return session.Save(r, w)
}

func (m *SessionManager) CurrentUserId(r *http.Request) (uuid.UUID, bool) {
	session := m.session(r)

	raw, ok := session.Values[userIdKey].(string)
	if !ok {
		return uuid.Nil, false
	}

	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return userId, true
}

type Flash struct {
	Category string
	Message  string
}

func (m *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session := m.session(r)
	session.AddFlash(category + "|" + message)
	if err := session.Save(r, w); err != nil {
		slog.Error("error saving flash message", "error", err)
	}
}

// Flashes pops all pending flash messages.
func (m *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := m.session(r)

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}

	if err := session.Save(r, w); err != nil {
		slog.Error("error clearing flash messages", "error", err)
	}

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		s, ok := f.(string)
		if !ok {
			continue
		}
		category, message, found := strings.Cut(s, "|")
		if !found {
			category, message = "info", s
		}
		flashes = append(flashes, Flash{Category: category, Message: message})
	}
	return flashes
}
