package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/lokapasar/lokapasar-backend/pkg/auth"
	"github.com/lokapasar/lokapasar-backend/pkg/auth/session"
	"github.com/lokapasar/lokapasar-backend/pkg/config"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "lokapasar-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60 * 24,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{OrganizationRepo: &stubOrgRepo{}, SessionManager: &stubSession{}}); err == nil {
		t.Fatal("expected error without user repo")
	}
	if _, err := NewService(ServiceParams{UserRepo: &stubUserRepo{}, SessionManager: &stubSession{}}); err == nil {
		t.Fatal("expected error without organization repo")
	}
	if _, err := NewService(ServiceParams{UserRepo: &stubUserRepo{}, OrganizationRepo: &stubOrgRepo{}}); err == nil {
		t.Fatal("expected error without session manager")
	}
}

func TestLoginSuccessBuyer(t *testing.T) {
	user := testUser(t, "rahasia-123", enums.MemberRoleBuyer)
	svc := newTestService(t, &stubUserRepo{user: user}, &stubOrgRepo{err: gorm.ErrRecordNotFound})

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "rahasia-123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, claims.UserID)
	}
	if claims.OrgID != nil {
		t.Fatalf("expected no org claim for buyer, got %v", claims.OrgID)
	}
	if claims.Role != enums.MemberRoleBuyer {
		t.Fatalf("unexpected role %s", claims.Role)
	}
}

func TestLoginMerchantCarriesOrgClaim(t *testing.T) {
	user := testUser(t, "rahasia-123", enums.MemberRoleMerchant)
	org := &models.Organization{ID: uuid.New(), OwnerID: user.ID}
	svc := newTestService(t, &stubUserRepo{user: user}, &stubOrgRepo{org: org})

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "rahasia-123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.OrgID == nil || *claims.OrgID != org.ID {
		t.Fatalf("expected org claim %s, got %v", org.ID, claims.OrgID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "rahasia-123", enums.MemberRoleBuyer)
	svc := newTestService(t, &stubUserRepo{user: user}, &stubOrgRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "salah"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginInactiveUser(t *testing.T) {
	user := testUser(t, "rahasia-123", enums.MemberRoleBuyer)
	user.IsActive = false
	svc := newTestService(t, &stubUserRepo{user: user}, &stubOrgRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "rahasia-123"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{findErr: gorm.ErrRecordNotFound}, &stubOrgRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "tidak-ada@example.com", Password: "x"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRotatesSession(t *testing.T) {
	user := testUser(t, "rahasia-123", enums.MemberRoleBuyer)
	sess := &stubSession{}
	svc := newTestServiceWithSession(t, &stubUserRepo{user: user}, &stubOrgRepo{err: gorm.ErrRecordNotFound}, sess)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "rahasia-123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected rotated pair")
	}
	if resp.RefreshToken == login.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, claims.UserID)
	}
	if claims.ID == "" || claims.ID == sess.lastRevoked {
		t.Fatalf("expected fresh jti, got %q", claims.ID)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	sess := &stubSession{rotateErr: session.ErrInvalidRefreshToken}
	svc := newTestServiceWithSession(t, &stubUserRepo{user: testUser(t, "rahasia-123", enums.MemberRoleBuyer)}, &stubOrgRepo{}, sess)

	payload := pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: enums.MemberRoleBuyer, JTI: "jti-1"}
	accessToken, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, gotErr := svc.Refresh(context.Background(), RefreshRequest{AccessToken: accessToken, RefreshToken: "bukan-token"})
	assertCode(t, gotErr, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	sess := &stubSession{}
	svc := newTestServiceWithSession(t, &stubUserRepo{}, &stubOrgRepo{}, sess)

	if err := svc.Logout(context.Background(), "jti-abc"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sess.lastRevoked != "jti-abc" {
		t.Fatalf("expected revoke of jti-abc, got %q", sess.lastRevoked)
	}
}

func TestLogoutRequiresAccessID(t *testing.T) {
	svc := newTestServiceWithSession(t, &stubUserRepo{}, &stubOrgRepo{}, &stubSession{})

	err := svc.Logout(context.Background(), "  ")
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func newTestService(t *testing.T, usersRepo *stubUserRepo, orgs *stubOrgRepo) Service {
	t.Helper()
	return newTestServiceWithSession(t, usersRepo, orgs, &stubSession{})
}

func newTestServiceWithSession(t *testing.T, usersRepo *stubUserRepo, orgs *stubOrgRepo, sess *stubSession) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:         usersRepo,
		OrganizationRepo: orgs,
		SessionManager:   sess,
		JWTConfig:        testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func testUser(t *testing.T, password string, role enums.MemberRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "dewi@example.com",
		PasswordHash: hash,
		FullName:     "Dewi Lestari",
		Role:         role,
		IsActive:     true,
	}
}

type stubUserRepo struct {
	user    *models.User
	findErr error
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubOrgRepo struct {
	org *models.Organization
	err error
}

func (s *stubOrgRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Organization, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.org == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.org, nil
}

type stubSession struct {
	rotateErr   error
	lastRevoked string
}

func (s *stubSession) Generate(ctx context.Context, accessID string) (string, error) {
	return "refresh-" + accessID, nil
}

func (s *stubSession) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.lastRevoked = oldAccessID
	newID := session.NewAccessID()
	return newID, "refresh-" + newID, nil
}

func (s *stubSession) Revoke(ctx context.Context, accessID string) error {
	s.lastRevoked = accessID
	return nil
}
