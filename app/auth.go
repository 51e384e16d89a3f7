// Package app contains the authentication service bound to the identity list.
package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	adaptermetrics "github.com/artpar/contentgate/adapters/metrics"
	"github.com/artpar/contentgate/adapters/session"
	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
	"github.com/artpar/contentgate/ports"
)

// Errors returned by the auth service.
var (
	// ErrInvalidCredentials does not say whether the identity or the secret
	// was wrong.
	ErrInvalidCredentials = errors.New("authentication failed")

	// ErrInitFirstItemDisabled is returned once the identity list has items.
	ErrInitFirstItemDisabled = errors.New("initial item already exists")
)

// Auth attempt results, as counted by metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// dummySecret is hashed once and compared against when the identity is
// unknown, so the response time does not reveal which identities exist.
const dummySecret = "contentgate-no-such-identity"

// AuthService authenticates items of the configured identity list.
type AuthService struct {
	cfg     schema.Auth
	rt      *runtime.Runtime
	hasher  ports.Hasher
	metrics ports.Metrics
	logger  zerolog.Logger

	dummyOnce sync.Once
	dummy     []byte
}

// NewAuthService creates the auth service and validates cfg against the
// runtime's registry.
func NewAuthService(cfg schema.Auth, rt *runtime.Runtime, metrics ports.Metrics, logger zerolog.Logger) (*AuthService, error) {
	if metrics == nil {
		metrics = adaptermetrics.Nop{}
	}
	s := &AuthService{
		cfg:     cfg,
		rt:      rt,
		hasher:  rt.Hasher(),
		metrics: metrics,
		logger:  logger.With().Str("component", "auth").Logger(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the auth configuration.
func (s *AuthService) Config() schema.Auth {
	return s.cfg
}

// Validate checks the auth configuration against the registered lists.
func (s *AuthService) Validate() error {
	return ValidateAuth(s.cfg, s.rt.Registry())
}

// ValidateAuth checks that the identity list exists, that the identity field
// is a unique text field, that the secret field is a password field and that
// the session and init fields exist.
func ValidateAuth(cfg schema.Auth, reg *registry.Registry) error {
	d, ok := reg.Get(cfg.ListKey)
	if !ok {
		return fmt.Errorf("auth: list %q is not defined", cfg.ListKey)
	}

	identity, ok := d.Field(cfg.IdentityField)
	if !ok || identity.Implicit {
		return fmt.Errorf("auth: %s has no identity field %q", cfg.ListKey, cfg.IdentityField)
	}
	if identity.Kind != schema.KindText || !identity.Unique {
		return fmt.Errorf("auth: identity field %s.%s must be a unique text field", cfg.ListKey, cfg.IdentityField)
	}

	secret, ok := d.Field(cfg.SecretField)
	if !ok || secret.Kind != schema.KindPassword {
		return fmt.Errorf("auth: secret field %s.%s must be a password field", cfg.ListKey, cfg.SecretField)
	}

	for _, name := range cfg.SessionData {
		f, ok := d.Field(name)
		if !ok {
			return fmt.Errorf("auth: session field %s.%s is not defined", cfg.ListKey, name)
		}
		if f.WriteOnly {
			return fmt.Errorf("auth: session field %s.%s is write-only", cfg.ListKey, name)
		}
	}

	if first := cfg.InitFirstItem; first != nil {
		for _, name := range first.Fields {
			if f, ok := d.Field(name); !ok || f.Implicit {
				return fmt.Errorf("auth: init field %s.%s is not defined", cfg.ListKey, name)
			}
		}
		for name := range first.ItemData {
			if f, ok := d.Field(name); !ok || f.Implicit {
				return fmt.Errorf("auth: init item data field %s.%s is not defined", cfg.ListKey, name)
			}
		}
	}
	return nil
}

// Authenticate checks identity and secret and returns the session data of
// the matching item.
func (s *AuthService) Authenticate(ctx context.Context, identity, secret string) (session.Data, error) {
	if identity == "" || secret == "" {
		s.fail("missing credentials")
		return session.Data{}, ErrInvalidCredentials
	}

	item, hash, err := s.rt.Credential(ctx, s.cfg.ListKey, s.cfg.IdentityField, identity, s.cfg.SecretField)
	if errors.Is(err, runtime.ErrNotFound) {
		s.hasher.Compare(s.dummyHash(), secret)
		s.fail("unknown identity")
		return session.Data{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.Data{}, fmt.Errorf("load identity: %w", err)
	}

	if len(hash) == 0 {
		s.hasher.Compare(s.dummyHash(), secret)
		s.fail("no secret set")
		return session.Data{}, ErrInvalidCredentials
	}
	if !s.hasher.Compare(hash, secret) {
		s.fail("secret mismatch")
		return session.Data{}, ErrInvalidCredentials
	}

	s.metrics.AuthAttempt(ResultSuccess)
	s.logger.Info().Str("item_id", item.ID()).Msg("authenticated")
	return s.SessionData(item), nil
}

func (s *AuthService) fail(reason string) {
	s.metrics.AuthAttempt(ResultFailure)
	s.logger.Info().Str("reason", reason).Msg("authentication failed")
}

func (s *AuthService) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummySecret)
		if err != nil {
			s.logger.Error().Err(err).Msg("hash dummy secret")
			return
		}
		s.dummy = h
	})
	return s.dummy
}

// SessionData builds session data from an item, copying the configured
// session fields.
func (s *AuthService) SessionData(item runtime.Item) session.Data {
	data := make(map[string]any, len(s.cfg.SessionData))
	for _, name := range s.cfg.SessionData {
		data[name] = item[name]
	}
	return session.Data{ListKey: s.cfg.ListKey, ItemID: item.ID(), Data: data}
}

// Item returns the item a session refers to. It returns runtime.ErrNotFound
// when the item has been deleted since sign-in.
func (s *AuthService) Item(ctx context.Context, sess session.Data) (runtime.Item, error) {
	if sess.ListKey != s.cfg.ListKey {
		return nil, runtime.ErrNotFound
	}
	return s.rt.FindOne(ctx, s.cfg.ListKey, map[string]any{convention.FieldID: sess.ItemID})
}

// InitEnabled reports whether the first-item bootstrap flow is configured.
func (s *AuthService) InitEnabled() bool {
	return s.cfg.InitFirstItem != nil
}

// InitFields returns the fields accepted by InitFirstItem.
func (s *AuthService) InitFields() []string {
	if s.cfg.InitFirstItem == nil {
		return nil
	}
	return slices.Clone(s.cfg.InitFirstItem.Fields)
}

// SetupRequired reports whether the identity list is still empty.
func (s *AuthService) SetupRequired(ctx context.Context) (bool, error) {
	n, err := s.rt.Count(ctx, s.cfg.ListKey, nil)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// InitFirstItem creates the first item of the identity list and returns its
// session data. Only the configured fields are accepted; the configured item
// data is merged over them. Once the list has any item the flow is disabled.
func (s *AuthService) InitFirstItem(ctx context.Context, data map[string]any) (session.Data, error) {
	first := s.cfg.InitFirstItem
	if first == nil {
		return session.Data{}, ErrInitFirstItemDisabled
	}

	in := make(map[string]any, len(data)+len(first.ItemData))
	for _, name := range slices.Sorted(maps.Keys(data)) {
		if !slices.Contains(first.Fields, name) {
			return session.Data{}, schema.NewValidationError(s.cfg.ListKey, name, schema.RuleUnknownField,
				"field is not accepted when creating the initial item")
		}
		in[name] = data[name]
	}
	maps.Copy(in, first.ItemData)

	item, err := s.rt.CreateFirst(ctx, s.cfg.ListKey, in)
	if errors.Is(err, runtime.ErrNotEmpty) {
		return session.Data{}, ErrInitFirstItemDisabled
	}
	if err != nil {
		return session.Data{}, err
	}

	s.logger.Info().Str("item_id", item.ID()).Msg("initial item created")
	return s.SessionData(item), nil
}
