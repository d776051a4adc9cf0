package auth

import (
	"context"
	"errors"
	"testing"

	domain "github.com/example/task-tracker/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestService builds an AuthService over an in-memory SQLite database.
func newTestService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewAuthService(NewUserRepository(db), NewPasswordHasher(), NewJWTManager(testJWTConfig()))
}

func TestAuthService_Register(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "a@x.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Register() returned user without ID")
	}
	if user.Username != "alice" || user.Email != "a@x.com" {
		t.Errorf("Register() = %q/%q, want alice/a@x.com", user.Username, user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Error("Register() must store an opaque hash, never the plaintext")
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "empty username",
			username: "",
			email:    "a@x.com",
			password: "password123",
			wantErr:  ErrInvalidUsername,
		},
		{
			name:     "invalid email",
			username: "alice",
			email:    "not-an-email",
			password: "password123",
			wantErr:  ErrInvalidEmail,
		},
		{
			name:     "short password",
			username: "alice",
			email:    "a@x.com",
			password: "short",
			wantErr:  ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "other@x.com", "password123"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username error = %v, want ErrUsernameTaken", err)
	}
	if _, err := svc.Register(ctx, "bob", "a@x.com", "password123"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}

	// Uniqueness is exact-string: a case variant is a different username.
	if _, err := svc.Register(ctx, "Alice", "alice2@x.com", "password123"); err != nil {
		t.Errorf("case-variant username error = %v, want nil", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tokens, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("Login() returned empty tokens")
	}
	if tokens.TokenType != "Bearer" {
		t.Errorf("TokenType = %v, want Bearer", tokens.TokenType)
	}

	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("claims.Username = %v, want alice", claims.Username)
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Wrong password and unknown username must yield the same error so the
	// endpoint cannot be used to enumerate usernames.
	_, wrongPass := svc.Login(ctx, "alice", "wrong-password")
	_, unknownUser := svc.Login(ctx, "nobody", "password123")

	if !errors.Is(wrongPass, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongPass)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", unknownUser)
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Errorf("login failures differ: %q vs %q", wrongPass, unknownUser)
	}
}

func TestAuthService_RefreshTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	tokens, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	refreshed, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("RefreshTokens() returned empty access token")
	}

	// An access token is not a refresh token.
	if _, err := svc.RefreshTokens(ctx, tokens.AccessToken); err == nil {
		t.Error("RefreshTokens() should reject an access token")
	}
}
