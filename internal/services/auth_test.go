package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/requestdata"
	"github.com/cvready/cvready-backend/internal/types"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
}

func newFakeUserRepo(users ...*types.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*types.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		r.users[u.ID] = u
	}
	return users, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*types.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, _ *gorm.DB, email string) (bool, error) {
	u, _ := r.GetByEmail(context.Background(), nil, email)
	return u != nil, nil
}

type fakeUserTokenRepo struct {
	tokens map[uuid.UUID]*types.UserToken // by user id, one active row per user
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
	return &fakeUserTokenRepo{tokens: map[uuid.UUID]*types.UserToken{}}
}

func (r *fakeUserTokenRepo) Create(_ context.Context, _ *gorm.DB, tokens []*types.UserToken) ([]*types.UserToken, error) {
	for _, t := range tokens {
		r.tokens[t.UserID] = t
	}
	return tokens, nil
}

func (r *fakeUserTokenRepo) GetByAccessToken(_ context.Context, _ *gorm.DB, accessToken string) (*types.UserToken, error) {
	for _, t := range r.tokens {
		if t.AccessToken == accessToken {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeUserTokenRepo) GetByRefreshToken(_ context.Context, _ *gorm.DB, refreshToken string) (*types.UserToken, error) {
	for _, t := range r.tokens {
		if t.RefreshToken == refreshToken {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeUserTokenRepo) DeleteByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) error {
	delete(r.tokens, userID)
	return nil
}

const testJWTSecret = "unit-test-secret"

func newAuthForTest(users *fakeUserRepo, tokens *fakeUserTokenRepo) AuthService {
	return NewAuthService(nil, testLogger(), users, tokens, testJWTSecret, 15*time.Minute, 24*time.Hour)
}

func TestRegisterUser(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthForTest(users, newFakeUserTokenRepo())

	u, err := svc.RegisterUser(context.Background(), "  Jane.Doe@Example.COM ", "hunter2hunter2", "Jane", "Doe")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if u.Email != "jane.doe@example.com" {
		t.Fatalf("email=%q, want lowercased and trimmed", u.Email)
	}
	if u.Password == "hunter2hunter2" {
		t.Fatalf("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("hunter2hunter2")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	if _, err := svc.RegisterUser(context.Background(), "jane.doe@example.com", "hunter2hunter2", "J", "D"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email err=%v", err)
	}
	if _, err := svc.RegisterUser(context.Background(), "short@example.com", "short", "S", "P"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("short password err=%v", err)
	}
	if _, err := svc.RegisterUser(context.Background(), "   ", "hunter2hunter2", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty email err=%v", err)
	}
}

func TestSetContextFromToken(t *testing.T) {
	users := newFakeUserRepo()
	tokens := newFakeUserTokenRepo()
	svc := newAuthForTest(users, tokens).(*authService)

	user := &types.User{ID: uuid.New(), Email: "jane@example.com"}
	users.users[user.ID] = user

	access, err := svc.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}
	tokens.tokens[user.ID] = &types.UserToken{
		ID: uuid.New(), UserID: user.ID, AccessToken: access,
		RefreshToken: uuid.NewString(), ExpiresAt: time.Now().Add(time.Hour),
	}

	ctx, err := svc.SetContextFromToken(context.Background(), access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("request data=%+v, want the token subject", rd)
	}
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	svc := newAuthForTest(newFakeUserRepo(), newFakeUserTokenRepo())
	if _, err := svc.SetContextFromToken(context.Background(), "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token err=%v", err)
	}
}

func TestSetContextFromTokenRejectsWrongKey(t *testing.T) {
	users := newFakeUserRepo()
	tokens := newFakeUserTokenRepo()
	svc := newAuthForTest(users, tokens)

	user := &types.User{ID: uuid.New()}
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.SetContextFromToken(context.Background(), forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("forged token err=%v", err)
	}
}

func TestSetContextFromTokenRejectsRevoked(t *testing.T) {
	users := newFakeUserRepo()
	tokens := newFakeUserTokenRepo()
	svc := newAuthForTest(users, tokens).(*authService)

	user := &types.User{ID: uuid.New()}
	access, err := svc.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}
	// Valid signature but no stored row: logged out or rotated away.
	if _, err := svc.SetContextFromToken(context.Background(), access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked token err=%v", err)
	}
}

func TestLogoutRemovesTokens(t *testing.T) {
	users := newFakeUserRepo()
	tokens := newFakeUserTokenRepo()
	svc := newAuthForTest(users, tokens)

	userID := uuid.New()
	tokens.tokens[userID] = &types.UserToken{ID: uuid.New(), UserID: userID, AccessToken: "a", RefreshToken: "r"}
	if err := svc.LogoutUser(context.Background(), userID); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}
	if len(tokens.tokens) != 0 {
		t.Fatalf("tokens remain after logout")
	}
}
