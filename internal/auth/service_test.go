package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/orderdeskhq/orderdesk-backend/pkg/auth"
	"github.com/orderdeskhq/orderdesk-backend/pkg/auth/session"
	"github.com/orderdeskhq/orderdesk-backend/pkg/config"
	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
	"github.com/orderdeskhq/orderdesk-backend/pkg/security"
)

type stubUserRepo struct {
	user           *models.User
	lookedUpName   string
	findByUserErr  error
	findByIDErr    error
	findByIDResult *models.User
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.lookedUpName = username
	if s.findByUserErr != nil {
		return nil, s.findByUserErr
	}
	if s.user == nil || s.user.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.findByIDErr != nil {
		return nil, s.findByIDErr
	}
	if s.findByIDResult != nil {
		return s.findByIDResult, nil
	}
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubSessionManager struct {
	generated    string
	rotateID     string
	rotateToken  string
	rotateErr    error
	revokedIDs   []string
	generateErr  error
	lastOldID    string
	lastProvided string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	if s.generateErr != nil {
		return "", s.generateErr
	}
	s.generated = accessID
	return "refresh-token", nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	s.lastOldID = oldAccessID
	s.lastProvided = provided
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return s.rotateID, s.rotateToken, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revokedIDs = append(s.revokedIDs, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "orderdesk",
		ExpirationMinutes: 15,
	}
}

func testUser(t *testing.T, username, pin string, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPIN(pin, config.PINConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	return &models.User{
		ID:       uuid.New(),
		Username: username,
		Name:     "Test User",
		Role:     enums.RoleStaff,
		PINHash:  hash,
		IsActive: active,
	}
}

func newAuthService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)
	return svc
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "alice", "1234", true)
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{}
	svc := newAuthService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "  ALICE ", PIN: "1234"})
	require.NoError(t, err)

	assert.Equal(t, "alice", repo.lookedUpName, "lookup must be lowercase")
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.RoleStaff, claims.Role)
	assert.Equal(t, sessions.generated, claims.ID, "refresh session must be keyed by the jti")
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	user := testUser(t, "alice", "1234", true)
	inactive := testUser(t, "bob", "1234", false)

	cases := []struct {
		name string
		repo *stubUserRepo
		req  LoginRequest
	}{
		{"unknown user", &stubUserRepo{user: user}, LoginRequest{Username: "nobody", PIN: "1234"}},
		{"wrong pin", &stubUserRepo{user: user}, LoginRequest{Username: "alice", PIN: "9999"}},
		{"inactive user", &stubUserRepo{user: inactive}, LoginRequest{Username: "bob", PIN: "1234"}},
		{"empty username", &stubUserRepo{user: user}, LoginRequest{PIN: "1234"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newAuthService(t, tc.repo, &stubSessionManager{})
			_, err := svc.Login(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
			assert.Contains(t, err.Error(), invalidCredentialsMessage)
		})
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	user := testUser(t, "alice", "1234", true)
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{rotateID: "new-access-id", rotateToken: "new-refresh"}
	svc := newAuthService(t, repo, sessions)

	oldAccess, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   enums.RoleStaff,
		JTI:    "old-access-id",
	})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  oldAccess,
		RefreshToken: "provided-refresh",
	})
	require.NoError(t, err)
	assert.Equal(t, "old-access-id", sessions.lastOldID)
	assert.Equal(t, "provided-refresh", sessions.lastProvided)
	assert.Equal(t, "new-refresh", resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new-access-id", claims.ID)
}

func TestRefreshInvalidToken(t *testing.T) {
	user := testUser(t, "alice", "1234", true)
	sessions := &stubSessionManager{rotateErr: session.ErrInvalidRefreshToken}
	svc := newAuthService(t, &stubUserRepo{user: user}, sessions)

	oldAccess, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   enums.RoleStaff,
		JTI:    "old-access-id",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: oldAccess, RefreshToken: "bogus"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: "garbage", RefreshToken: "bogus"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshDeactivatedUserRevokesNewSession(t *testing.T) {
	user := testUser(t, "alice", "1234", false)
	sessions := &stubSessionManager{rotateID: "new-access-id", rotateToken: "new-refresh"}
	svc := newAuthService(t, &stubUserRepo{user: user}, sessions)

	oldAccess, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   enums.RoleStaff,
		JTI:    "old-access-id",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: oldAccess, RefreshToken: "provided"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Contains(t, sessions.revokedIDs, "new-access-id")
}

func TestLogout(t *testing.T) {
	sessions := &stubSessionManager{}
	svc := newAuthService(t, &stubUserRepo{}, sessions)

	require.NoError(t, svc.Logout(context.Background(), "some-access-id"))
	assert.Contains(t, sessions.revokedIDs, "some-access-id")

	err := svc.Logout(context.Background(), "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
