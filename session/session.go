package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// Keys of the persisted profile fields
const (
	KeyToken  = "token"
	KeyEmail  = "email"
	KeyRole   = "role"
	KeyName   = "name"
	KeyUserID = "user_id"
)

var allKeys = []string{KeyToken, KeyEmail, KeyRole, KeyName, KeyUserID}

// Role of the signed-in user
type Role string

const (
	RolePatient Role = api.RolePatient
	RoleAdmin   Role = api.RoleAdmin
)

// User is the authenticated subject
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Session is a validated credential plus its subject
type Session struct {
	Token string
	User  User
}

// IsAdmin reports whether the subject has the admin role
func (s *Session) IsAdmin() bool {
	return s != nil && s.User.Role == RoleAdmin
}

// Credentials for Login
type Credentials struct {
	Email    string
	Password string
}

// Registration for Register
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// KV persists profile fields across restarts
type KV interface {
	Get(key string) (string, error)
	SetMany(values map[string]string) error
	Delete(keys ...string) error
}

// Authenticator is the backend side of the session lifecycle
type Authenticator interface {
	Register(ctx context.Context, req api.RegisterRequest) error
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (*api.ValidateResponse, error)
}

// ErrInvalidCredential is returned by ValidateOnStartup when the backend
// reports the stored token as no longer valid
var ErrInvalidCredential = errors.New("stored credential is no longer valid")

// Store owns the session. It is the only writer of the persisted keys.
type Store struct {
	kv     KV
	auth   Authenticator
	logger *utils.Logger

	mu      sync.RWMutex
	token   string
	current *Session
	loading bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(*Session)
}

// NewStore creates a store. A previously persisted token becomes a pending
// credential: it is attached to requests but Current stays nil until
// ValidateOnStartup accepts it.
func NewStore(kv KV, auth Authenticator, logger *utils.Logger) *Store {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	s := &Store{
		kv:     kv,
		auth:   auth,
		logger: logger,
		subs:   make(map[int]func(*Session)),
	}

	token, err := kv.Get(KeyToken)
	if err != nil {
		logger.Error("Failed to read stored credential: %v", err)
	}
	s.token = token
	s.loading = token != ""
	return s
}

// Current returns the validated session, or nil
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Token returns the credential attached to outbound requests
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Loading reports whether startup validation is pending
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe registers fn for every session change; fn receives the new
// session (nil when signed out)
func (s *Store) Subscribe(fn func(*Session)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	current := s.Current()

	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*Session), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

// Login authenticates and persists the session
func (s *Store) Login(ctx context.Context, creds Credentials) (*Session, error) {
	email := strings.TrimSpace(creds.Email)
	if err := utils.ValidateLogin(email, creds.Password); err != nil {
		return nil, err
	}

	resp, err := s.auth.Login(ctx, api.LoginRequest{Email: email, Password: creds.Password})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("login response carried no access token")
	}

	sess := &Session{
		Token: resp.AccessToken,
		User: User{
			ID:    resp.UserID.String(),
			Name:  resp.Name,
			Email: resp.Email,
			Role:  Role(resp.Role),
		},
	}
	if err := s.kv.SetMany(persisted(sess)); err != nil {
		return nil, utils.WrapError(err, "failed to persist session")
	}

	s.mu.Lock()
	s.token = sess.Token
	s.current = sess
	s.loading = false
	s.mu.Unlock()

	s.logger.Info("Signed in as %s (%s)", sess.User.Email, sess.User.Role)
	s.notify()
	return s.Current(), nil
}

// Register creates an account after local validation; the session is not
// changed
func (s *Store) Register(ctx context.Context, reg Registration) error {
	name := strings.TrimSpace(reg.Name)
	email := strings.TrimSpace(reg.Email)
	if err := utils.ValidateRegistration(name, email, reg.Password); err != nil {
		return err
	}
	role := reg.Role
	if role == "" {
		role = RolePatient
	}
	return s.auth.Register(ctx, api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: reg.Password,
		Role:     string(role),
	})
}

// Logout clears the session locally. It always succeeds.
func (s *Store) Logout() {
	s.clear()
	s.logger.Info("Signed out")
	s.notify()
}

// Invalidate clears the session if token is the current credential. It
// returns true only for the call that actually cleared it.
func (s *Store) Invalidate(token string) bool {
	s.mu.Lock()
	if token == "" || token != s.token {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.current = nil
	s.mu.Unlock()

	s.deleteKeys()
	s.logger.Warn("Credential rejected by server, session cleared")
	s.notify()
	return true
}

// ValidateOnStartup checks a stored credential against the backend. Any
// failure clears every persisted field.
func (s *Store) ValidateOnStartup(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	token := s.token
	if token == "" {
		s.loading = false
		s.mu.Unlock()
		s.notify()
		return nil, nil
	}
	s.loading = true
	s.mu.Unlock()

	resp, err := s.auth.ValidateToken(ctx, token)
	if err == nil && !resp.Valid {
		err = ErrInvalidCredential
	}
	if err != nil {
		s.logger.Warn("Startup validation failed: %s", utils.Redact(err.Error()))
		s.clear()
		s.notify()
		return nil, err
	}

	sess := &Session{
		Token: token,
		User: User{
			ID:    resp.UserID.String(),
			Name:  resp.Name,
			Email: resp.Email,
			Role:  Role(resp.Role),
		},
	}
	if err := s.kv.SetMany(persisted(sess)); err != nil {
		s.logger.Error("Failed to persist session: %v", err)
	}

	s.mu.Lock()
	adopted := s.token == token
	if adopted {
		s.current = sess
	}
	s.loading = false
	s.mu.Unlock()

	s.notify()
	if !adopted {
		return nil, ErrInvalidCredential
	}
	return s.Current(), nil
}

func (s *Store) clear() {
	s.mu.Lock()
	s.token = ""
	s.current = nil
	s.loading = false
	s.mu.Unlock()
	s.deleteKeys()
}

func (s *Store) deleteKeys() {
	if err := s.kv.Delete(allKeys...); err != nil {
		s.logger.Error("Failed to clear persisted session: %v", err)
	}
}

func persisted(sess *Session) map[string]string {
	return map[string]string{
		KeyToken:  sess.Token,
		KeyEmail:  sess.User.Email,
		KeyRole:   string(sess.User.Role),
		KeyName:   sess.User.Name,
		KeyUserID: sess.User.ID,
	}
}
