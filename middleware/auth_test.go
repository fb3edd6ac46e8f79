package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/tests/testutil"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	testutil.MustSetTestEnvironment(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Admin{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// setupMockUserInfoServer simulates the identity provider's /userinfo endpoint.
// Profiles are looked up by bearer token.
func setupMockUserInfoServer(profiles map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		profile, exists := profiles[strings.TrimPrefix(authHeader, "Bearer ")]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	}))
}

// stubVerifier returns the configured subject for any token, or fails
func stubVerifier(subject string, err error) TokenVerifier {
	return func(ctx context.Context, token string) (string, error) {
		if err != nil {
			return "", err
		}
		return subject, nil
	}
}

func newTestResolver(t *testing.T, db *gorm.DB, server *httptest.Server, verify TokenVerifier) *Resolver {
	t.Helper()

	cfg := &config.Config{JWTSecret: "test-secret"}
	if server != nil {
		cfg.Auth0Domain = server.URL
	}
	return NewResolverWithVerifier(cfg, db, services.NewAuth0Service(cfg), verify)
}

func TestResolve_LegacyAdminShortCircuit(t *testing.T) {
	db := setupAuthTestDB(t)

	admin := models.Admin{Username: "admin", Email: "admin@example.com"}
	assert.NoError(t, admin.SetPassword("secret123"))
	db.Create(&admin)

	token, err := GenerateLegacyToken(admin.ID, LegacyScopeAdmin, "test-secret")
	assert.NoError(t, err)

	// The provider verifier must never run for a valid local admin token
	verifierCalled := false
	resolver := newTestResolver(t, db, nil, func(ctx context.Context, token string) (string, error) {
		verifierCalled = true
		return "", fmt.Errorf("should not be called")
	})

	identity, authErr := resolver.Resolve(context.Background(), token)
	assert.Nil(t, authErr)
	assert.NotNil(t, identity.Admin)
	assert.Nil(t, identity.User)
	assert.Equal(t, admin.ID, identity.Admin.ID)
	assert.True(t, identity.IsAdmin())
	assert.Equal(t, "admin", identity.Ref())
	assert.False(t, verifierCalled)
}

func TestResolve_UserScopedTokenNeverResolvesAsAdmin(t *testing.T) {
	db := setupAuthTestDB(t)

	admin := models.Admin{Username: "root", Email: "root@example.com"}
	assert.NoError(t, admin.SetPassword("secret123"))
	db.Create(&admin)

	user := models.User{
		Name:      "Mallory",
		Email:     "mallory@rguktsklm.ac.in",
		Role:      models.RoleMember,
		StudentID: "S190666",
	}
	db.Create(&user)

	// Both tables assign serial ids from 1, so the first member collides
	// with the first back-office account
	assert.Equal(t, admin.ID, user.ID)

	token, err := GenerateLegacyToken(user.ID, LegacyScopeUser, "test-secret")
	assert.NoError(t, err)

	resolver := newTestResolver(t, db, nil, stubVerifier("", fmt.Errorf("bad token")))

	identity, authErr := resolver.Resolve(context.Background(), token)
	assert.Nil(t, identity)
	assert.NotNil(t, authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "UNAUTHENTICATED", authErr.Code)
}

func TestResolve_LegacyTokenDeletedAdminFallsThrough(t *testing.T) {
	db := setupAuthTestDB(t)

	// Token signed under the local secret, but no matching admin record
	token, err := GenerateLegacyToken(42, LegacyScopeAdmin, "test-secret")
	assert.NoError(t, err)

	resolver := newTestResolver(t, db, nil, stubVerifier("", fmt.Errorf("bad token")))

	identity, authErr := resolver.Resolve(context.Background(), token)
	assert.Nil(t, identity)
	assert.NotNil(t, authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "UNAUTHENTICATED", authErr.Code)
}

func TestResolve_LinkedUserSkipsUserInfo(t *testing.T) {
	db := setupAuthTestDB(t)

	externalID := "auth0|linked123"
	user := models.User{
		ExternalID: &externalID,
		Name:       "Linked User",
		Email:      "linked@rguktsklm.ac.in",
		Role:       models.RoleMember,
		StudentID:  "S190001",
	}
	db.Create(&user)

	// No userinfo server: a provider round-trip would fail the resolve
	resolver := newTestResolver(t, db, nil, stubVerifier(externalID, nil))

	identity, authErr := resolver.Resolve(context.Background(), "provider-token")
	assert.Nil(t, authErr)
	assert.NotNil(t, identity.User)
	assert.Equal(t, user.ID, identity.User.ID)
	assert.Equal(t, externalID, identity.Ref())
	assert.False(t, identity.IsAdmin())
}

func TestResolve_FirstContactCreatesUser(t *testing.T) {
	db := setupAuthTestDB(t)

	server := setupMockUserInfoServer(map[string]*services.Auth0UserInfo{
		"fresh-token": {
			Sub:   "auth0|fresh123",
			Email: "Newcomer@rguktsklm.ac.in",
			Name:  "New Comer",
		},
	})
	defer server.Close()

	resolver := newTestResolver(t, db, server, stubVerifier("auth0|fresh123", nil))

	identity, authErr := resolver.Resolve(context.Background(), "fresh-token")
	assert.Nil(t, authErr)
	assert.NotNil(t, identity.User)
	assert.Equal(t, "newcomer@rguktsklm.ac.in", identity.User.Email)
	assert.Equal(t, "New Comer", identity.User.Name)
	assert.Equal(t, models.RoleMember, identity.User.Role)
	assert.True(t, strings.HasPrefix(identity.User.StudentID, "TEMP_"))

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// Resolving again must not create a second record
	identity2, authErr := resolver.Resolve(context.Background(), "fresh-token")
	assert.Nil(t, authErr)
	assert.Equal(t, identity.User.ID, identity2.User.ID)

	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolve_ForbiddenDomainCreatesNothing(t *testing.T) {
	db := setupAuthTestDB(t)

	server := setupMockUserInfoServer(map[string]*services.Auth0UserInfo{
		"outsider-token": {
			Sub:   "auth0|outsider",
			Email: "outsider@gmail.com",
			Name:  "Outsider",
		},
	})
	defer server.Close()

	resolver := newTestResolver(t, db, server, stubVerifier("auth0|outsider", nil))

	identity, authErr := resolver.Resolve(context.Background(), "outsider-token")
	assert.Nil(t, identity)
	assert.NotNil(t, authErr)
	assert.Equal(t, http.StatusForbidden, authErr.Status)
	assert.Equal(t, "DOMAIN_NOT_ALLOWED", authErr.Code)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestResolve_LinksExistingUserByEmail(t *testing.T) {
	db := setupAuthTestDB(t)

	// Account created out-of-band through legacy registration, not yet linked
	user := models.User{
		Name:      "Legacy User",
		Email:     "legacy@rguktsklm.ac.in",
		Role:      models.RoleMember,
		StudentID: "S190042",
	}
	db.Create(&user)

	server := setupMockUserInfoServer(map[string]*services.Auth0UserInfo{
		"legacy-token": {
			Sub:   "auth0|legacy42",
			Email: "LEGACY@rguktsklm.ac.in",
			Name:  "Legacy User",
		},
	})
	defer server.Close()

	resolver := newTestResolver(t, db, server, stubVerifier("auth0|legacy42", nil))

	identity, authErr := resolver.Resolve(context.Background(), "legacy-token")
	assert.Nil(t, authErr)
	assert.Equal(t, user.ID, identity.User.ID)
	assert.NotNil(t, identity.User.ExternalID)
	assert.Equal(t, "auth0|legacy42", *identity.User.ExternalID)
	assert.Equal(t, "S190042", identity.User.StudentID, "existing profile must be preserved")

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolve_UserInfoFailureIsSyncError(t *testing.T) {
	db := setupAuthTestDB(t)

	// Empty profile map: every userinfo call returns 401
	server := setupMockUserInfoServer(map[string]*services.Auth0UserInfo{})
	defer server.Close()

	resolver := newTestResolver(t, db, server, stubVerifier("auth0|unknown", nil))

	identity, authErr := resolver.Resolve(context.Background(), "unknown-token")
	assert.Nil(t, identity)
	assert.NotNil(t, authErr)
	assert.Equal(t, http.StatusInternalServerError, authErr.Status)
	assert.Equal(t, "USER_SYNC_FAILED", authErr.Code)
}

func TestProtect_MissingOrMalformedHeader(t *testing.T) {
	db := setupAuthTestDB(t)
	resolver := newTestResolver(t, db, nil, stubVerifier("", fmt.Errorf("bad token")))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", resolver.Protect(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "No header", header: ""},
		{name: "Not a bearer scheme", header: "Basic abc123"},
		{name: "Bearer with no token", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.False(t, response["success"].(bool))
			errorData := response["error"].(map[string]interface{})
			assert.Equal(t, "UNAUTHENTICATED", errorData["code"])
		})
	}
}

func TestProtect_AttachesIdentity(t *testing.T) {
	db := setupAuthTestDB(t)

	externalID := "auth0|member1"
	user := models.User{
		ExternalID: &externalID,
		Name:       "Member",
		Email:      "member@rguktsklm.ac.in",
		Role:       models.RoleMember,
		StudentID:  "S190100",
	}
	db.Create(&user)

	resolver := newTestResolver(t, db, nil, stubVerifier(externalID, nil))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", resolver.Protect(), func(c *gin.Context) {
		identity, err := GetIdentity(c)
		assert.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"success": true, "ref": identity.Ref()})
	})

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer provider-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, externalID, response["ref"])
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		identity       *Identity
		expectedStatus int
	}{
		{
			name:           "Legacy admin allowed",
			identity:       &Identity{Admin: &models.Admin{Username: "admin"}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Admin-role user allowed",
			identity:       &Identity{User: &models.User{Role: models.RoleAdmin}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Member forbidden",
			identity:       &Identity{User: &models.User{Role: models.RoleMember}},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "No identity forbidden",
			identity:       nil,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/admin",
				func(c *gin.Context) {
					if tt.identity != nil {
						SetIdentity(c, tt.identity)
					}
					c.Next()
				},
				RequireAdmin(),
				func(c *gin.Context) {
					c.JSON(http.StatusOK, gin.H{"success": true})
				},
			)

			req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestIdentityRef(t *testing.T) {
	externalID := "auth0|abc"

	tests := []struct {
		name     string
		identity Identity
		expected string
	}{
		{
			name:     "Legacy admin",
			identity: Identity{Admin: &models.Admin{ID: 7}},
			expected: "admin",
		},
		{
			name:     "Linked user",
			identity: Identity{User: &models.User{ID: 3, ExternalID: &externalID}},
			expected: "auth0|abc",
		},
		{
			name:     "Unlinked legacy user",
			identity: Identity{User: &models.User{ID: 3}},
			expected: "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.identity.Ref())
		})
	}
}

func TestGenerateLegacyToken_RoundTrip(t *testing.T) {
	db := setupAuthTestDB(t)

	admin := models.Admin{Username: "roundtrip", Email: "roundtrip@example.com"}
	assert.NoError(t, admin.SetPassword("secret123"))
	db.Create(&admin)

	token, err := GenerateLegacyToken(admin.ID, LegacyScopeAdmin, "test-secret")
	assert.NoError(t, err)

	resolver := newTestResolver(t, db, nil, stubVerifier("", fmt.Errorf("unreachable")))

	// Wrong secret must not resolve
	wrongResolver := NewResolverWithVerifier(
		&config.Config{JWTSecret: "other-secret"}, db, nil,
		stubVerifier("", fmt.Errorf("unreachable")),
	)
	_, authErr := wrongResolver.Resolve(context.Background(), token)
	assert.NotNil(t, authErr)

	identity, authErr := resolver.Resolve(context.Background(), token)
	assert.Nil(t, authErr)
	assert.Equal(t, admin.ID, identity.Admin.ID)
}
