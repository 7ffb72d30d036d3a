package domain

// Durable storage keys mirrored by the session store.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Session is the client's view of who is logged in. Token and Username are
// either both set or both nil.
type Session struct {
	Token    *string
	Username *string
}

func (s Session) IsAuthenticated() bool {
	return s.Token != nil
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	var c Session
	if s.Token != nil {
		token := *s.Token
		c.Token = &token
	}
	if s.Username != nil {
		username := *s.Username
		c.Username = &username
	}
	return c
}
