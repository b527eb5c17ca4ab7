package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/spsgroup/go-auth/middleware/jwtware"
)

// HTTPAuth wires the Authenticator into the router layer: it builds the
// token middleware for protected routes and owns the error handler that
// turns rich errors into JSON responses.
type HTTPAuth struct {
	auth          Authenticator
	cfg           Config
	tokenService  TokenService
	tokenDuration time.Duration
	Logger        Logger
	ErrorHandler  func(c router.Context, err error) error
}

// NewHTTPAuth creates the HTTP integration for a configured Authenticator.
func NewHTTPAuth(auther Authenticator, cfg Config) (*HTTPAuth, error) {
	tokenDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		tokenDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	a := &HTTPAuth{
		cfg:           cfg,
		auth:          auther,
		Logger:        defLogger{},
		tokenDuration: tokenDuration,
	}

	if ts, ok := auther.(interface{ TokenService() TokenService }); ok {
		a.tokenService = ts.TokenService()
	} else {
		a.tokenService = NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			defLogger{},
		)
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *HTTPAuth) WithLogger(logger Logger) *HTTPAuth {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// GetTokenDuration returns how long issued tokens stay valid.
func (a HTTPAuth) GetTokenDuration() time.Duration {
	return a.tokenDuration
}

// ProtectedRoute guards a route group with token validation. An empty
// requiredRole admits any authenticated principal.
func (a *HTTPAuth) ProtectedRoute(requiredRole UserRole, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: tokenServiceValidator{ts: a.tokenService},
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		RequiredRole:   string(requiredRole),
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			ac, ok := claims.(AuthClaims)
			if !ok {
				return c
			}
			return WithClaimsContext(c, ac)
		},
	})
}

// AdminOnly guards a route group so only administrators get through.
func (a *HTTPAuth) AdminOnly(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return a.ProtectedRoute(RoleAdmin, errorHandler)
}

// MakeAPIAuthErrorHandler normalizes middleware failures into the rich error
// vocabulary before handing them to the response writer.
func (a *HTTPAuth) MakeAPIAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if errors.Is(err, jwtware.ErrInsufficientRole) {
			richErr = ErrForbidden
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

// defaultErrHandler propagates the rich error so the outermost ErrorBoundary
// renders it. Propagation matters for rate limiting: the limiter middleware
// only refunds a request when nothing downstream returned an error.
func (a *HTTPAuth) defaultErrHandler(c router.Context, err error) error {
	return err
}

// ErrorBoundary renders any error escaping downstream handlers as a JSON
// response. Mount it first so every other middleware and handler can return
// rich errors instead of writing responses themselves.
func ErrorBoundary(logger Logger) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if err := ctx.Next(); err != nil {
				return WriteError(ctx, logger, err)
			}
			return nil
		}
	}
}

// tokenServiceValidator adapts the core TokenService to the middleware's
// validator contract.
type tokenServiceValidator struct {
	ts TokenService
}

func (v tokenServiceValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message  string         `json:"message"`
	TextCode string         `json:"code,omitempty"`
	Category string         `json:"category,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// WriteError renders any error as a JSON body with the matching HTTP status.
// Internal failures are logged with their metadata and returned as an opaque
// 500; everything else echoes the rich error's message and text code.
func WriteError(c router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusForCategory(richErr.Category)
	}

	if status >= http.StatusInternalServerError {
		logger.Error(
			"request failed",
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		return c.JSON(status, errorResponse{Error: errorBody{
			Message:  "An unexpected server error occurred",
			TextCode: richErr.TextCode,
			Category: string(richErr.Category),
		}})
	}

	logger.Info(
		"request rejected",
		"status", status,
		"error", richErr.Message,
		"category", richErr.Category,
	)

	body := errorBody{
		Message:  richErr.Message,
		TextCode: richErr.TextCode,
		Category: string(richErr.Category),
	}
	if len(richErr.Metadata) > 0 && richErr.Category == errors.CategoryValidation {
		body.Fields = richErr.Metadata
	}

	return c.JSON(status, errorResponse{Error: body})
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
