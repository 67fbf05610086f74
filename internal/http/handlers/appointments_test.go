package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fasfaisa/Appointment-sheduling/internal/auth"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/appointment"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/slot"
	"github.com/fasfaisa/Appointment-sheduling/internal/http/handlers"
	"github.com/fasfaisa/Appointment-sheduling/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keep Gin quiet during tests

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// Fake booking store implementing handlers.BookingStore

type fakeBookingStore struct {
	createFn func(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error)
	listFn   func(ctx context.Context, userID string) ([]appointment.Appointment, error)
	deleteFn func(ctx context.Context, id, userID string) (string, error)
}

func (f *fakeBookingStore) Create(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return appointment.Appointment{}, nil
}

func (f *fakeBookingStore) ListByUser(ctx context.Context, userID string) ([]appointment.Appointment, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeBookingStore) Delete(ctx context.Context, id, userID string) (string, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, userID)
	}
	return "", nil
}

// Fake token verifier so routes can run behind the real auth middleware.

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func setupAuthedRouter(method, path string, verifier middlewares.TokenVerifier, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	am := middlewares.NewAuthMiddleware(verifier)
	r.Handle(method, path, am.RequireAuth(), h)

	return r
}

func userClaims(userID string) *auth.Claims {
	return &auth.Claims{
		UserID:  userID,
		Email:   "user@example.com",
		IsAdmin: false,
	}
}

func TestCreateAppointmentHandler(t *testing.T) {
	userID := newUUID()
	slotID := newUUID()

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeBookingStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{
				"date": "2026-09-15",
				"timeSlot": "` + slotID + `",
				"name": "Jane Doe",
				"contact": "+14165550199",
				"notes": "first visit"
			}`,
			repoSetup: func(f *fakeBookingStore) {
				f.createFn = func(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error) {
					if req.UserID != userID {
						return appointment.Appointment{}, errors.New("user id not taken from token")
					}
					return appointment.Appointment{
						ID:         newUUID(),
						UserID:     req.UserID,
						TimeSlotID: req.TimeSlotID,
						Date:       req.Date,
						Status:     appointment.StatusPending,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "slot_full_conflict",
			body: `{
				"date": "2026-09-15",
				"timeSlot": "` + slotID + `",
				"name": "Jane Doe",
				"contact": "+14165550199"
			}`,
			repoSetup: func(f *fakeBookingStore) {
				f.createFn = func(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error) {
					return appointment.Appointment{}, appointment.ErrSlotFull
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "unknown_slot",
			body: `{
				"date": "2026-09-15",
				"timeSlot": "` + slotID + `",
				"name": "Jane Doe",
				"contact": "+14165550199"
			}`,
			repoSetup: func(f *fakeBookingStore) {
				f.createFn = func(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error) {
					return appointment.Appointment{}, slot.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "inactive_slot",
			body: `{
				"date": "2026-09-15",
				"timeSlot": "` + slotID + `",
				"name": "Jane Doe",
				"contact": "+14165550199"
			}`,
			repoSetup: func(f *fakeBookingStore) {
				f.createFn = func(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error) {
					return appointment.Appointment{}, slot.ErrInactive
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "validation_error_bad_date",
			body: `{
				"date": "15-09-2026",
				"timeSlot": "` + slotID + `",
				"name": "Jane Doe",
				"contact": "+14165550199"
			}`,
			repoSetup: func(f *fakeBookingStore) {
				// invalid payload, repo must not be reached
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "validation_error_bad_slot_id",
			body: `{
				"date": "2026-09-15",
				"timeSlot": "not-a-uuid",
				"name": "Jane Doe",
				"contact": "+14165550199"
			}`,
			repoSetup:      func(f *fakeBookingStore) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{
				"date": "2026-09-15",
				"timeSlot": "` + slotID + `",
				"name": "Jane Doe",
				"contact": "+14165550199"
			}`,
			repoSetup: func(f *fakeBookingStore) {
				f.createFn = func(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error) {
					return appointment.Appointment{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeBookingStore{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewAppointmentsHandler(fakeRepo, nil, nil)

			verifier := &fakeVerifier{claims: userClaims(userID)}
			r := setupAuthedRouter(http.MethodPost, "/api/appointments", verifier, h.Create)

			req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestCreateAppointmentHandler_MissingToken(t *testing.T) {
	fakeRepo := &fakeBookingStore{}
	h := handlers.NewAppointmentsHandler(fakeRepo, nil, nil)

	verifier := &fakeVerifier{err: errors.New("bad token")}
	r := setupAuthedRouter(http.MethodPost, "/api/appointments", verifier, h.Create)

	// no Authorization header at all
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}
}

func TestListOwnAppointmentsHandler(t *testing.T) {
	userID := newUUID()

	tests := []struct {
		name           string
		repoSetup      func(*fakeBookingStore)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success_scoped_to_caller",
			repoSetup: func(f *fakeBookingStore) {
				f.listFn = func(ctx context.Context, uid string) ([]appointment.Appointment, error) {
					if uid != userID {
						return nil, errors.New("wrong user scope")
					}
					return []appointment.Appointment{
						{ID: newUUID(), UserID: uid, Date: "2026-09-15", SlotTime: "09:00:00", Status: appointment.StatusPending},
						{ID: newUUID(), UserID: uid, Date: "2026-09-15", SlotTime: "10:00:00", Status: appointment.StatusConfirmed},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "success_empty",
			repoSetup: func(f *fakeBookingStore) {
				f.listFn = func(ctx context.Context, uid string) ([]appointment.Appointment, error) {
					return []appointment.Appointment{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name: "repo_error",
			repoSetup: func(f *fakeBookingStore) {
				f.listFn = func(ctx context.Context, uid string) ([]appointment.Appointment, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeBookingStore{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewAppointmentsHandler(fakeRepo, nil, nil)

			verifier := &fakeVerifier{claims: userClaims(userID)}
			r := setupAuthedRouter(http.MethodGet, "/api/appointments", verifier, h.ListOwn)

			req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
			req.Header.Set("Authorization", "Bearer token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Count int `json:"count"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Count != tt.wantCount {
					t.Fatalf("got count %d, want %d", resp.Count, tt.wantCount)
				}
			}
		})
	}
}

func TestCancelAppointmentHandler(t *testing.T) {
	userID := newUUID()
	apptID := newUUID()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeBookingStore)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/api/appointments/" + apptID,
			repoSetup: func(f *fakeBookingStore) {
				f.deleteFn = func(ctx context.Context, id, uid string) (string, error) {
					if id != apptID || uid != userID {
						return "", errors.New("delete not scoped correctly")
					}
					return "2026-09-15", nil
				}
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			// repeated cancel and someone else's id land here: the row is
			// simply not there for this user, which is still 204
			name: "idempotent_when_missing",
			url:  "/api/appointments/" + apptID,
			repoSetup: func(f *fakeBookingStore) {
				f.deleteFn = func(ctx context.Context, id, uid string) (string, error) {
					return "", nil
				}
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name:           "invalid_id",
			url:            "/api/appointments/not-a-uuid",
			repoSetup:      func(f *fakeBookingStore) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			url:  "/api/appointments/" + apptID,
			repoSetup: func(f *fakeBookingStore) {
				f.deleteFn = func(ctx context.Context, id, uid string) (string, error) {
					return "", errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeBookingStore{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewAppointmentsHandler(fakeRepo, nil, nil)

			verifier := &fakeVerifier{claims: userClaims(userID)}
			r := setupAuthedRouter(http.MethodDelete, "/api/appointments/:id", verifier, h.Cancel)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
			req.Header.Set("Authorization", "Bearer token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
