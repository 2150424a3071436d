package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/config"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/security"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestNewServiceRequiresRepos(t *testing.T) {
	if _, err := NewService(nil, &stubAddressRepo{}, testPasswordConfig()); err == nil {
		t.Fatal("expected error creating service without users repo")
	}
	if _, err := NewService(&stubUserRepo{}, nil, testPasswordConfig()); err == nil {
		t.Fatal("expected error creating service without address repo")
	}
}

func TestGetProfileNotFound(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{findErr: gorm.ErrRecordNotFound}, &stubAddressRepo{})

	_, err := svc.GetProfile(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateProfile(t *testing.T) {
	user := baseUser(t, "rahasia-123")
	repo := &stubUserRepo{user: user}
	svc := newTestService(t, repo, &stubAddressRepo{})

	newName := "Dewi Anggraini"
	newPhone := "  "
	dto, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		FullName: &newName,
		Phone:    &newPhone,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if dto.FullName != newName {
		t.Fatalf("expected name %q, got %q", newName, dto.FullName)
	}
	if dto.Phone != nil {
		t.Fatalf("expected phone cleared, got %v", dto.Phone)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	user := baseUser(t, "rahasia-123")
	svc := newTestService(t, &stubUserRepo{user: user}, &stubAddressRepo{})

	err := svc.ChangePassword(context.Background(), user.ID, "salah-password", "password-baru")
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestChangePasswordTooShort(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, &stubAddressRepo{})

	err := svc.ChangePassword(context.Background(), uuid.New(), "rahasia-123", "pendek")
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestChangePasswordSuccess(t *testing.T) {
	user := baseUser(t, "rahasia-123")
	repo := &stubUserRepo{user: user}
	svc := newTestService(t, repo, &stubAddressRepo{})

	if err := svc.ChangePassword(context.Background(), user.ID, "rahasia-123", "password-baru"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if repo.passwordHash == "" {
		t.Fatal("expected new password hash persisted")
	}
	valid, err := security.VerifyPassword("password-baru", repo.passwordHash)
	if err != nil || !valid {
		t.Fatalf("expected new hash to verify, valid=%v err=%v", valid, err)
	}
}

func TestAddAddressRequiresLabel(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, &stubAddressRepo{})

	_, err := svc.AddAddress(context.Background(), uuid.New(), AddressInput{Address: baseAddress()})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestAddAddressSuccess(t *testing.T) {
	addrRepo := &stubAddressRepo{}
	svc := newTestService(t, &stubUserRepo{}, addrRepo)

	dto, err := svc.AddAddress(context.Background(), uuid.New(), AddressInput{
		Label:     "Rumah",
		Address:   baseAddress(),
		IsDefault: true,
	})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}
	if dto.Label != "Rumah" || !dto.IsDefault {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if addrRepo.created == nil {
		t.Fatal("expected address persisted")
	}
}

func TestUpdateAddressNotFound(t *testing.T) {
	addrRepo := &stubAddressRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, &stubUserRepo{}, addrRepo)

	_, err := svc.UpdateAddress(context.Background(), uuid.New(), uuid.New(), AddressInput{
		Label:   "Kantor",
		Address: baseAddress(),
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteAddressNotFound(t *testing.T) {
	addrRepo := &stubAddressRepo{deleteErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, &stubUserRepo{}, addrRepo)

	err := svc.DeleteAddress(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func newTestService(t *testing.T, users *stubUserRepo, addresses *stubAddressRepo) Service {
	t.Helper()
	svc, err := NewService(users, addresses, testPasswordConfig())
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

func baseUser(t *testing.T, password string) *models.User {
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
		Role:         enums.MemberRoleBuyer,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func baseAddress() types.Address {
	return types.Address{
		Recipient:     "Dewi Lestari",
		Phone:         "081234567890",
		Line1:         "Jl. Merdeka No. 10",
		District:      "Menteng",
		City:          "Jakarta Pusat",
		Province:      "DKI Jakarta",
		PostalCode:    "10310",
		DestinationID: 1391,
	}
}

type stubUserRepo struct {
	user         *models.User
	findErr      error
	updateErr    error
	passwordHash string
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	return s.updateErr
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.passwordHash = hash
	return nil
}

type stubAddressRepo struct {
	created   *models.UserAddress
	addr      *models.UserAddress
	findErr   error
	deleteErr error
}

func (s *stubAddressRepo) Create(ctx context.Context, addr *models.UserAddress) error {
	addr.ID = uuid.New()
	s.created = addr
	return nil
}

func (s *stubAddressRepo) List(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	if s.addr == nil {
		return nil, nil
	}
	return []models.UserAddress{*s.addr}, nil
}

func (s *stubAddressRepo) Find(ctx context.Context, userID, addressID uuid.UUID) (*models.UserAddress, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.addr == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.addr, nil
}

func (s *stubAddressRepo) Update(ctx context.Context, addr *models.UserAddress) error {
	s.addr = addr
	return nil
}

func (s *stubAddressRepo) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.deleteErr
}
