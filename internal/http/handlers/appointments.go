package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/cache"
	"github.com/fasfaisa/Appointment-sheduling/internal/config"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/appointment"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/slot"
	"github.com/fasfaisa/Appointment-sheduling/internal/http/middlewares"
	"github.com/fasfaisa/Appointment-sheduling/internal/observability"
	"github.com/fasfaisa/Appointment-sheduling/internal/utils"
	"github.com/gin-gonic/gin"
)

type BookingStore interface {
	Create(ctx context.Context, req appointment.CreateAppointmentRequest) (appointment.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]appointment.Appointment, error)
	Delete(ctx context.Context, id, userID string) (string, error)
}

type AppointmentsHandler struct {
	repo  BookingStore
	cache cache.Store
	prom  *observability.Prom
}

func NewAppointmentsHandler(repo BookingStore, c cache.Store, prom *observability.Prom) *AppointmentsHandler {
	return &AppointmentsHandler{repo: repo, cache: c, prom: prom}
}

func (h *AppointmentsHandler) bookingResult(result string) {
	if h.prom != nil {
		h.prom.BookingsTotal.WithLabelValues(result).Inc()
	}
}

// Create books a slot for the authenticated user. The capacity re-check and
// the insert run in one transaction inside the repo, so a losing racer gets
// the conflict instead of an oversold slot.
func (h *AppointmentsHandler) Create(ctx *gin.Context) {
	var req appointment.CreateAppointmentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	req.UserID = userID

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	appt, err := h.repo.Create(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrSlotFull):
			h.bookingResult("conflict")
			RespondConflict(ctx, "slot_full", "This time slot is already booked out.")
		case errors.Is(err, slot.ErrNotFound), errors.Is(err, slot.ErrInactive):
			h.bookingResult("error")
			RespondNotFound(ctx, "Time slot not found")
		default:
			h.bookingResult("error")
			RespondInternal(ctx, "Could not book appointment")
		}
		return
	}

	h.bookingResult("created")
	h.invalidateAvailability(cctx, appt.Date)

	ctx.JSON(http.StatusCreated, gin.H{"id": appt.ID})
}

func (h *AppointmentsHandler) ListOwn(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	appts, err := h.repo.ListByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list appointments")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":        len(appts),
		"appointments": appts,
	})
}

// Cancel deletes the caller's booking. Unknown or foreign ids are a silent
// no-op: the end state ("no such booking of mine") is the same either way.
func (h *AppointmentsHandler) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "appointment id must be a valid UUID", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	date, err := h.repo.Delete(cctx, id, userID)

	if err != nil {
		RespondInternal(ctx, "Could not cancel appointment")
		return
	}

	if date != "" {
		h.invalidateAvailability(cctx, date)
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AppointmentsHandler) invalidateAvailability(ctx context.Context, date string) {
	if h.cache == nil {
		return
	}

	h.cache.Delete(ctx, slotsCacheKey(date))
	h.cache.Delete(ctx, availableDatesCacheKey)
}
