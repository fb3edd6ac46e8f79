package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

// AllowedEmailDomain is the institutional email suffix gating account
// auto-creation. Hardcoded, not environment-driven.
const AllowedEmailDomain = "@rguktsklm.ac.in"

const identityContextKey = "identity"

// Scopes stamped into locally-signed tokens. Admin and user credentials
// share the signing secret and tables with colliding serial ids, so the
// scope claim is what keeps a user token out of the admin lookup.
const (
	LegacyScopeAdmin = "admin"
	LegacyScopeUser  = "user"
)

// AuthError represents an authentication or authorization failure with the
// HTTP status it maps to
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var errMissingIdentity = errors.New("identity not found in context")

// Identity is the resolved caller of an authenticated request. Exactly one
// of User and Admin is set: User for identity-provider members (including
// users with the admin role), Admin for the legacy back-office credential.
// The two admin representations are intentionally kept disjoint.
type Identity struct {
	User  *models.User
	Admin *models.Admin
}

// IsAdmin reports whether the identity carries administrative rights through
// either representation
func (i *Identity) IsAdmin() bool {
	if i.Admin != nil {
		return true
	}
	return i.User != nil && i.User.Role == models.RoleAdmin
}

// Ref returns the opaque reference stored on items and claims for this
// identity: the provider subject for linked users, the local numeric id for
// legacy users, or the literal "admin" for legacy back-office accounts.
func (i *Identity) Ref() string {
	if i.Admin != nil {
		return "admin"
	}
	if i.User != nil {
		if i.User.ExternalID != nil && *i.User.ExternalID != "" {
			return *i.User.ExternalID
		}
		return strconv.FormatUint(uint64(i.User.ID), 10)
	}
	return ""
}

// TokenVerifier verifies an identity-provider token and returns its subject
type TokenVerifier func(ctx context.Context, token string) (string, error)

// Resolver turns an inbound bearer credential into a resolved local identity.
//
// Resolution order: the locally-signed legacy admin token is checked first
// and short-circuits everything else; only then is the credential treated as
// an identity-provider session token and reconciled against the user store.
type Resolver struct {
	db        *gorm.DB
	auth0     *services.Auth0Service
	verify    TokenVerifier
	jwtSecret string
}

// NewResolver constructs the resolver with its provider verification chain.
// All handles are supplied at startup; nothing connects lazily per request.
func NewResolver(cfg *config.Config, db *gorm.DB) (*Resolver, error) {
	verify, err := newProviderVerifier(cfg)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		db:        db,
		auth0:     services.NewAuth0Service(cfg),
		verify:    verify,
		jwtSecret: cfg.JWTSecret,
	}, nil
}

// NewResolverWithVerifier constructs a resolver with a custom provider
// verifier (primarily for testing)
func NewResolverWithVerifier(cfg *config.Config, db *gorm.DB, auth0 *services.Auth0Service, verify TokenVerifier) *Resolver {
	return &Resolver{
		db:        db,
		auth0:     auth0,
		verify:    verify,
		jwtSecret: cfg.JWTSecret,
	}
}

// newProviderVerifier builds the jwks-backed RS256 token verifier
func newProviderVerifier(cfg *config.Config) (TokenVerifier, error) {
	if cfg.Auth0Domain == "" {
		// Provider not configured: only the legacy admin path can succeed
		return func(ctx context.Context, token string) (string, error) {
			return "", fmt.Errorf("identity provider not configured")
		}, nil
	}

	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}

	return func(ctx context.Context, token string) (string, error) {
		claims, err := jwtValidator.ValidateToken(ctx, token)
		if err != nil {
			return "", err
		}
		validated, ok := claims.(*validator.ValidatedClaims)
		if !ok || validated.RegisteredClaims.Subject == "" {
			return "", fmt.Errorf("token carries no subject")
		}
		return validated.RegisteredClaims.Subject, nil
	}, nil
}

// Resolve determines the caller behind the given bearer credential.
//
// The legacy admin path runs first: a token signed under the local secret
// that maps to an existing admin record never reaches provider verification.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*Identity, *AuthError) {
	if admin, ok := r.resolveLegacyAdmin(credential); ok {
		return &Identity{Admin: admin}, nil
	}

	subject, err := r.verify(ctx, credential)
	if err != nil {
		return nil, &AuthError{
			Status:  http.StatusUnauthorized,
			Code:    "UNAUTHENTICATED",
			Message: "Failed to validate credential",
		}
	}

	user, authErr := r.syncUser(subject, credential)
	if authErr != nil {
		return nil, authErr
	}

	return &Identity{User: user}, nil
}

// resolveLegacyAdmin tries the credential as a locally-signed HS256 token.
// It succeeds only when the token verifies, carries the admin scope, and its
// id claim still maps to an admin record; anything else falls through to
// provider verification.
func (r *Resolver) resolveLegacyAdmin(credential string) (*models.Admin, bool) {
	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(r.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	if scope, ok := claims["scope"].(string); !ok || scope != LegacyScopeAdmin {
		return nil, false
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return nil, false
	}

	var admin models.Admin
	if err := r.db.First(&admin, uint(id)).Error; err != nil {
		return nil, false
	}
	return &admin, true
}

// syncUser reconciles a verified provider subject with the local user store
func (r *Resolver) syncUser(subject, accessToken string) (*models.User, *AuthError) {
	var user models.User
	err := r.db.Where("external_id = ?", subject).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, syncFailed(err)
	}

	// Not linked yet: fetch the provider profile for email and name
	info, err := r.auth0.GetUserInfo(accessToken)
	if err != nil {
		return nil, syncFailed(err)
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))

	// Domain restriction. Runs only on this not-yet-linked path: an already
	// linked record is trusted regardless of its email domain.
	if !strings.HasSuffix(email, AllowedEmailDomain) {
		return nil, &AuthError{
			Status:  http.StatusForbidden,
			Code:    "DOMAIN_NOT_ALLOWED",
			Message: "Access Denied: Domain not allowed",
		}
	}

	// Pre-existing record created out-of-band: link it to the subject
	err = r.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		user.ExternalID = &subject
		if err := r.db.Save(&user).Error; err != nil {
			return nil, syncFailed(err)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, syncFailed(err)
	}

	// First contact: create the user with a placeholder student identifier
	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = "User"
	}

	user = models.User{
		ExternalID: &subject,
		Name:       name,
		Email:      email,
		Role:       models.RoleMember,
		StudentID:  fmt.Sprintf("TEMP_%d_%03d", time.Now().UnixMilli(), rand.Intn(1000)),
		Phone:      info.PhoneNumber,
	}
	if err := r.db.Create(&user).Error; err != nil {
		return nil, syncFailed(err)
	}

	return &user, nil
}

func syncFailed(err error) *AuthError {
	log.Printf("User sync error: %v", err)
	return &AuthError{
		Status:  http.StatusInternalServerError,
		Code:    "USER_SYNC_FAILED",
		Message: "User Sync Failed",
	}
}

// Protect is the middleware guarding authenticated routes. It resolves the
// bearer credential and attaches the identity to the request context.
func (r *Resolver) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHENTICATED",
					"message": "Authorization token required",
				},
			})
			c.Abort()
			return
		}

		identity, authErr := r.Resolve(c.Request.Context(), credential)
		if authErr != nil {
			c.JSON(authErr.Status, gin.H{
				"success": false,
				"error": gin.H{
					"code":    authErr.Code,
					"message": authErr.Message,
				},
			})
			c.Abort()
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// RequireAdmin aborts the request unless the resolved identity carries
// administrative rights. Must run after Protect.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := GetIdentity(c)
		if err != nil || !identity.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Administrator access required",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity extracts the resolved identity from the Gin context
func GetIdentity(c *gin.Context) (*Identity, error) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return nil, errMissingIdentity
	}
	identity, ok := value.(*Identity)
	if !ok {
		return nil, errMissingIdentity
	}
	return identity, nil
}

// SetIdentity stores an identity in the Gin context (primarily for testing)
func SetIdentity(c *gin.Context, identity *Identity) {
	c.Set(identityContextKey, identity)
}

// bearerToken extracts the credential from the Authorization header
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GenerateLegacyToken issues a locally-signed HS256 token for the legacy
// credential paths (admin back office and legacy user login). The scope
// records which path issued the token; ids in the two tables collide.
func GenerateLegacyToken(id uint, scope, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    id,
		"scope": scope,
		"exp":   time.Now().Add(30 * 24 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
