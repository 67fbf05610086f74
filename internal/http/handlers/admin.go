package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/cache"
	"github.com/fasfaisa/Appointment-sheduling/internal/config"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/appointment"
	"github.com/fasfaisa/Appointment-sheduling/internal/utils"
	"github.com/gin-gonic/gin"
)

type AdminStore interface {
	ListAll(ctx context.Context) ([]appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type SlotCapacitySetter interface {
	SetAllCapacity(ctx context.Context, capacity int) error
}

type AdminHandler struct {
	appointments AdminStore
	slots        SlotCapacitySetter
	cache        cache.Store
}

func NewAdminHandler(appointments AdminStore, slots SlotCapacitySetter, c cache.Store) *AdminHandler {
	return &AdminHandler{appointments: appointments, slots: slots, cache: c}
}

func (h *AdminHandler) ListAll(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	appts, err := h.appointments.ListAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list appointments")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":        len(appts),
		"appointments": appts,
	})
}

// UpdateStatus moves a booking through its workflow states. Status is
// bookkeeping only; capacity accounting counts every non-deleted row.
func (h *AdminHandler) UpdateStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "appointment id must be a valid UUID", nil)
		return
	}

	var req appointment.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.appointments.UpdateStatus(cctx, id, req.Status)

	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			RespondNotFound(ctx, "Appointment not found")
			return
		}

		RespondInternal(ctx, "Could not update appointment")
		return
	}

	ctx.Status(http.StatusNoContent)
}

type SetCapacityRequest struct {
	Capacity int `json:"capacity" binding:"required,min=1"`
}

// SetCapacity applies a new per-day capacity to every slot in the catalog.
// The aggregate availability view is invalidated here; per-date "slots:<date>"
// entries are not enumerable through the cache interface, so they serve the
// old capacity until their TTL (seconds, not minutes) expires.
func (h *AdminHandler) SetCapacity(ctx *gin.Context) {
	var req SetCapacityRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.slots.SetAllCapacity(cctx, req.Capacity)

	if err != nil {
		RespondInternal(ctx, "Could not update slot capacity")
		return
	}

	if h.cache != nil {
		h.cache.Delete(cctx, availableDatesCacheKey)
	}

	ctx.Status(http.StatusNoContent)
}
