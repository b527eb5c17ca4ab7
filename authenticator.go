package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther wires the credential verifier and the token issuer into the login
// flow. It holds no per-request state; the token service it owns is a pure
// function of its signing configuration.
type Auther struct {
	provider     IdentityProvider
	signingKey   []byte
	issuer       string
	audience     []string
	logger       Logger
	tokenService TokenService
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		signingKey:   []byte(opts.GetSigningKey()),
		audience:     opts.GetAudience(),
		issuer:       opts.GetIssuer(),
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service, mostly useful for tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credential pair and mints a signed token for the
// matching identity. The identity is returned alongside the token so the HTTP
// layer can echo the safe fields back without a second lookup.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Info("login verify identity failed", "identifier", NormalizeEmail(identifier))
		return "", nil, err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("login token generation failed", "error", err)
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue token")
	}

	s.logger.Info("login successful", "identifier", identity.Email())

	return token, identity, nil
}

// IdentityFromToken validates a raw token and returns the identity encoded in
// its claims. No store lookup happens here: the token is the source of truth
// for the lifetime of the session.
func (s *Auther) IdentityFromToken(raw string) (Identity, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		return nil, err
	}

	jc, ok := claims.(*JWTClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	return jc.Identity(), nil
}
