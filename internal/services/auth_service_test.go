package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories/casdoor"
)

type stubVerifier struct {
	identity *casdoor.Identity
	err      error
}

func (v stubVerifier) Verify(token string) (*casdoor.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func (e *testEnv) auth(verifier casdoor.TokenVerifier) *authService {
	svc := NewAuthService(e.repo, e.logger, e.validator, e.cache, AuthConfig{
		Secret:   "test-secret",
		Expiry:   2 * time.Hour,
		Verifier: verifier,
	}).(*authService)
	svc.now = e.clock
	return svc
}

func registerStudent(t *testing.T, svc AuthService, number, password string) *models.User {
	t.Helper()
	u, err := svc.RegisterStudent(context.Background(), &RegisterStudentRequest{
		StudentNumber:   number,
		FullName:        "王五",
		Password:        password,
		ConfirmPassword: password,
	})
	if err != nil {
		t.Fatalf("RegisterStudent() error = %v", err)
	}
	return u
}

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	svc := env.auth(nil)
	ctx := context.Background()

	u := registerStudent(t, svc, "2025100", "secret1")
	if u.Role != models.RoleStudent || u.PasswordHash == "" || u.PasswordHash == "secret1" {
		t.Errorf("unexpected stored student %+v", u)
	}

	tests := []struct {
		name    string
		req     *RegisterStudentRequest
		wantErr error
	}{
		{
			name:    "duplicate student number",
			req:     &RegisterStudentRequest{StudentNumber: "2025100", FullName: "x", Password: "secret1", ConfirmPassword: "secret1"},
			wantErr: ErrAccountExists,
		},
		{
			name:    "password confirmation mismatch",
			req:     &RegisterStudentRequest{StudentNumber: "2025101", FullName: "x", Password: "secret1", ConfirmPassword: "secret2"},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "short password",
			req:     &RegisterStudentRequest{StudentNumber: "2025102", FullName: "x", Password: "123", ConfirmPassword: "123"},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "account with spaces",
			req:     &RegisterStudentRequest{StudentNumber: "20 25", FullName: "x", Password: "secret1", ConfirmPassword: "secret1"},
			wantErr: ErrValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterStudent(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RegisterStudent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("teacher may reuse a student number", func(t *testing.T) {
		teacher, err := svc.RegisterTeacher(ctx, &RegisterTeacherRequest{
			TeacherNumber: "2025100", FullName: "赵老师", Password: "secret1", ConfirmPassword: "secret1",
		})
		if err != nil {
			t.Fatalf("RegisterTeacher() error = %v", err)
		}
		if teacher.Role != models.RoleTeacher || teacher.Class != nil {
			t.Errorf("unexpected teacher %+v", teacher)
		}
	})
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	svc := env.auth(nil)
	ctx := context.Background()
	student := registerStudent(t, svc, "2025200", "secret1")

	tests := []struct {
		name    string
		req     *LoginRequest
		wantErr error
	}{
		{name: "wrong password", req: &LoginRequest{Role: models.RoleStudent, Account: "2025200", Password: "nope"}, wantErr: ErrInvalidCredentials},
		{name: "wrong role", req: &LoginRequest{Role: models.RoleTeacher, Account: "2025200", Password: "secret1"}, wantErr: ErrInvalidCredentials},
		{name: "unknown account", req: &LoginRequest{Role: models.RoleStudent, Account: "nobody", Password: "secret1"}, wantErr: ErrInvalidCredentials},
		{name: "unknown role", req: &LoginRequest{Role: "guest", Account: "2025200", Password: "secret1"}, wantErr: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	resp, err := svc.Login(ctx, &LoginRequest{Role: models.RoleStudent, Account: "2025200", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !resp.ExpiresAt.Equal(env.now.Add(2 * time.Hour)) {
		t.Errorf("expires at %v, want %v", resp.ExpiresAt, env.now.Add(2*time.Hour))
	}

	u, err := svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if u.ID != student.ID {
		t.Errorf("authenticated user %d, want %d", u.ID, student.ID)
	}

	t.Run("tampered token", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, resp.Token+"x"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Authenticate() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		env.now = env.now.Add(3 * time.Hour)
		defer func() { env.now = env.now.Add(-3 * time.Hour) }()
		if _, err := svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Authenticate() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("deleted account", func(t *testing.T) {
		other := registerStudent(t, svc, "2025201", "secret1")
		r, err := svc.Login(ctx, &LoginRequest{Role: models.RoleStudent, Account: "2025201", Password: "secret1"})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		mustDo(t, env.repo.User().Delete(ctx, nil, other.ID))
		if _, err := svc.Authenticate(ctx, r.Token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Authenticate() error = %v, want ErrUnauthorized", err)
		}
	})
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	svc := env.auth(nil)
	ctx := context.Background()
	registerStudent(t, svc, "2025300", "secret1")

	resp, err := svc.Login(ctx, &LoginRequest{Role: models.RoleStudent, Account: "2025300", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(ctx, resp.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	claims, err := svc.parseToken(resp.Token)
	if err != nil {
		t.Fatalf("parseToken() error = %v", err)
	}
	key := "auth:" + cache.RevokedTokenKey(claims.ID)
	if !env.redis.Exists(key) {
		t.Fatalf("revocation key %s not set", key)
	}
	if ttl := env.redis.TTL(key); ttl <= 0 || ttl > 2*time.Hour {
		t.Errorf("revocation ttl = %v, want within the token lifetime", ttl)
	}
	if _, err := svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Authenticate() after logout error = %v, want ErrUnauthorized", err)
	}

	if err := svc.Logout(ctx, "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Logout(garbage) error = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_LogoutWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	env.cache = cache.NewCacheManager(nil)
	svc := env.auth(nil)
	ctx := context.Background()
	registerStudent(t, svc, "2025400", "secret1")

	resp, err := svc.Login(ctx, &LoginRequest{Role: models.RoleStudent, Account: "2025400", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(ctx, resp.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Authenticate(ctx, resp.Token); err != nil {
		t.Errorf("Authenticate() error = %v, token stays valid without a denylist", err)
	}
}

func TestAuthService_AuthenticateExternal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := &casdoor.Identity{ExternalID: "cd-1", Account: "T001", FullName: "钱老师", Role: models.RoleTeacher}

	svc := env.auth(stubVerifier{identity: identity})
	u, err := svc.Authenticate(ctx, "sso-token")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if u.ID == 0 || u.ExternalID == nil || *u.ExternalID != "cd-1" || u.Role != models.RoleTeacher {
		t.Fatalf("provisioned user = %+v", u)
	}

	again, err := svc.Authenticate(ctx, "sso-token")
	if err != nil {
		t.Fatalf("second Authenticate() error = %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("second login provisioned user %d, want %d", again.ID, u.ID)
	}

	t.Run("links an existing local account", func(t *testing.T) {
		local := registerStudent(t, svc, "S9", "secret1")
		linker := env.auth(stubVerifier{identity: &casdoor.Identity{ExternalID: "cd-2", Account: "S9", Role: models.RoleStudent}})
		got, err := linker.Authenticate(ctx, "sso-token-2")
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if got.ID != local.ID {
			t.Errorf("linked user %d, want %d", got.ID, local.ID)
		}
	})

	t.Run("verifier rejects", func(t *testing.T) {
		rejecting := env.auth(stubVerifier{err: errors.New("bad signature")})
		if _, err := rejecting.Authenticate(ctx, "sso-token"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Authenticate() error = %v, want ErrUnauthorized", err)
		}
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.auth(nil)
	ctx := context.Background()

	if _, err := svc.EnsureAdmin(ctx, "admin", "123"); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("EnsureAdmin() short password error = %v, want ErrValidationFailed", err)
	}

	first, err := svc.EnsureAdmin(ctx, "admin", "first-pass")
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	second, err := svc.EnsureAdmin(ctx, "admin", "second-pass")
	if err != nil {
		t.Fatalf("EnsureAdmin() reset error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("reset created a new admin %d, want %d", second.ID, first.ID)
	}

	if _, err := svc.Login(ctx, &LoginRequest{Role: models.RoleAdmin, Account: "admin", Password: "first-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(ctx, &LoginRequest{Role: models.RoleAdmin, Account: "admin", Password: "second-pass"}); err != nil {
		t.Errorf("Login() with reset password error = %v", err)
	}
}
