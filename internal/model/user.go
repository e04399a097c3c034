package model

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trainchat/transit-bot-go/internal/config"
)

// Session is the per-user conversational session. It exists for session
// rotation only; users themselves are never deleted.
type Session struct {
	SessionID string `json:"sessionId"`
	LastTouch int64  `json:"lastTouch"` // unix millis
	TTL       int64  `json:"ttl"`       // seconds
}

// Profile is cached Messenger display info. A zero ProfileDate means the
// profile has never been fetched.
type Profile struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	ProfileDate int64  `json:"profileDate"` // unix millis
}

// Stale reports whether the cached profile should be re-fetched.
func (p Profile) Stale(now time.Time, maxAge time.Duration) bool {
	return p.ProfileDate == 0 || now.UnixMilli()-p.ProfileDate > maxAge.Milliseconds()
}

// Name returns the display name, or fallback when no profile is cached.
func (p Profile) Name(fallback string) string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	}
	return fallback
}

// UserData holds the active conversation and bounded trip history. The
// JSON shape matches existing stored records exactly.
type UserData struct {
	CurrentRequest *CurrentRequest  `json:"currentRequest,omitempty"`
	TripHistory    []CurrentRequest `json:"tripHistory,omitempty"`
}

// PushHistory prepends a completed request, evicting the oldest entries
// beyond max.
func (d *UserData) PushHistory(rqs CurrentRequest, max int) {
	d.TripHistory = append([]CurrentRequest{rqs}, d.TripHistory...)
	if len(d.TripHistory) > max {
		d.TripHistory = d.TripHistory[:max]
	}
}

// User is one (application, Messenger user) pair.
type User struct {
	AppID     string    `db:"app_id" json:"appId"`
	UserID    string    `db:"user_id" json:"userId"`
	Session   Session   `db:"session" json:"session"`
	Profile   Profile   `db:"profile" json:"profile,omitempty"`
	Data      UserData  `db:"data" json:"data"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewUser creates a user record for a first-contact sender.
func NewUser(appID, userID string, now time.Time) *User {
	return &User{
		AppID:   appID,
		UserID:  userID,
		Session: generateSession(appID, userID, config.DefaultSessionTTLSeconds, now),
	}
}

// Touch rotates the session when it has gone stale, otherwise just
// refreshes lastTouch.
func (u *User) Touch(now time.Time) {
	s := &u.Session
	if s.SessionID == "" || now.UnixMilli()-s.LastTouch > s.TTL*1000 {
		ttl := s.TTL
		if ttl <= 0 {
			ttl = config.DefaultSessionTTLSeconds
		}
		u.Session = generateSession(u.AppID, u.UserID, ttl, now)
		return
	}
	s.LastTouch = now.UnixMilli()
}

func generateSession(appID, userID string, ttl int64, now time.Time) Session {
	h := sha1.New()
	fmt.Fprintf(h, "appId=%s,userId=%s,dt=%d", appID, userID, now.UnixMilli())
	return Session{
		SessionID: hex.EncodeToString(h.Sum(nil)),
		LastTouch: now.UnixMilli(),
		TTL:       ttl,
	}
}

// JSONB plumbing for sqlx. Each document column round-trips through json
// so the stored shape stays interoperable with existing records.

func (s *Session) Scan(src any) error { return scanJSON(src, s) }
func (s Session) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (p *Profile) Scan(src any) error { return scanJSON(src, p) }
func (p Profile) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (d *UserData) Scan(src any) error { return scanJSON(src, d) }
func (d UserData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func scanJSON(src, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
