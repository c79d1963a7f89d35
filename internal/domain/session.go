package domain

import "time"

// User is the identity record returned by the backend after authentication.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// Credentials is what the Auth collaborator hands back on a successful
// credential exchange or account creation.
type Credentials struct {
	User         User
	AccessToken  string
	RefreshToken string
}

// Session is the authenticated-identity state of a client. The zero value is
// the unauthenticated session.
type Session struct {
	User         *User     `json:"user,omitempty"`
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// Active reports whether both the identity and the credential are present.
func (s Session) Active() bool {
	return s.User != nil && s.Token != ""
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
