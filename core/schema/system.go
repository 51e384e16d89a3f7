package schema

import "time"

// System is the top-level configuration value: storage target, feature
// toggles, the list set and the session/auth wrapping. It is produced once at
// startup and treated as read-only afterwards.
type System struct {
	DB           DB
	Experimental Experimental
	Lists        []List
	Session      Session

	// Auth is nil until WithAuth is applied.
	Auth *Auth
}

// DB names the storage target.
type DB struct {
	// Provider is "sqlite", "postgresql" or "mysql".
	Provider string
	URL      string
}

// Experimental toggles the generated API surfaces.
type Experimental struct {
	GenerateGraphQLAPI bool
	GenerateNodeAPI    bool
}

// Session configures stateless cookie sessions.
type Session struct {
	Secret     string
	MaxAge     time.Duration
	CookieName string
	// Secure forces the Secure cookie attribute; otherwise it follows the request scheme.
	Secure bool
}

// DefaultSessionMaxAge is seven days.
const DefaultSessionMaxAge = 7 * 24 * time.Hour

// Auth binds a list as the identity source.
type Auth struct {
	ListKey       string
	IdentityField string
	SecretField   string

	// SessionData lists the item fields copied into the session.
	SessionData []string

	// InitFirstItem enables the bootstrap flow while the list is empty.
	InitFirstItem *InitFirstItem
}

// InitFirstItem configures the first-item bootstrap flow.
type InitFirstItem struct {
	// Fields accepted from the caller.
	Fields []string

	// ItemData is merged into the created item.
	ItemData map[string]any
}

// WithAuth returns a copy of the system wrapped with the given auth config.
func WithAuth(sys System, auth Auth) System {
	a := auth
	sys.Auth = &a
	return sys
}

// List returns the list with the given key.
func (s System) List(key string) (List, bool) {
	for _, l := range s.Lists {
		if l.Key == key {
			return l, true
		}
	}
	return List{}, false
}
