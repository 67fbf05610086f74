package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fasfaisa/Appointment-sheduling/internal/domain/user"
	"github.com/fasfaisa/Appointment-sheduling/internal/http/handlers"
	"github.com/fasfaisa/Appointment-sheduling/internal/security"
)

type fakeUsersRepo struct {
	createFn     func(ctx context.Context, email, passwordHash, name string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeUsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, passwordHash, name)
	}
	return user.User{}, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) GenerateToken(userID, email string, isAdmin bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + userID, nil
}

func TestSignUpHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeUsersRepo)
		wantStatusCode int
		wantErrCode    string
	}{
		{
			name: "success",
			body: `{"name": "Jane Doe", "email": "jane@example.com", "password": "s3cret-pass"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, email, passwordHash, name string) (user.User, error) {
					if passwordHash == "s3cret-pass" {
						return user.User{}, errors.New("password stored in plaintext")
					}
					return user.User{ID: newUUID(), Email: email, Name: name}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "duplicate_email",
			body: `{"name": "Jane Doe", "email": "jane@example.com", "password": "s3cret-pass"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, email, passwordHash, name string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantErrCode:    "email_taken",
		},
		{
			name:           "short_password",
			body:           `{"name": "Jane Doe", "email": "jane@example.com", "password": "short"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_email",
			body:           `{"name": "Jane Doe", "email": "not-an-email", "password": "s3cret-pass"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, &fakeIssuer{})
			r := setupRouter(http.MethodPost, "/api/auth/signup", h.SignUp)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantErrCode != "" {
				var resp struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Error.Code != tt.wantErrCode {
					t.Fatalf("got error code %q, want %q", resp.Error.Code, tt.wantErrCode)
				}
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	adminUser := user.User{ID: newUUID(), Email: "admin@example.com", PasswordHash: hash, IsAdmin: true}

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeUsersRepo)
		wantStatusCode int
		wantIsAdmin    bool
	}{
		{
			name: "success_admin_flag",
			body: `{"email": "admin@example.com", "password": "s3cret-pass"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return adminUser, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantIsAdmin:    true,
		},
		{
			name: "wrong_password",
			body: `{"email": "admin@example.com", "password": "wrong-pass"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return adminUser, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// unknown email responds the same as wrong password
			name: "unknown_email",
			body: `{"email": "nobody@example.com", "password": "s3cret-pass"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "missing_fields",
			body:           `{"email": "admin@example.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// a storage failure is not a credential verdict
			name: "storage_error",
			body: `{"email": "admin@example.com", "password": "s3cret-pass"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, &fakeIssuer{})
			r := setupRouter(http.MethodPost, "/api/auth/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Token   string `json:"token"`
					IsAdmin bool   `json:"isAdmin"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Token == "" {
					t.Fatalf("expected a token in the response")
				}
				if resp.IsAdmin != tt.wantIsAdmin {
					t.Fatalf("got isAdmin %v, want %v", resp.IsAdmin, tt.wantIsAdmin)
				}
			}
		})
	}
}
