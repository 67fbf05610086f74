package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/availability"
	"github.com/fasfaisa/Appointment-sheduling/internal/cache"
	"github.com/fasfaisa/Appointment-sheduling/internal/config"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/appointment"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/slot"
	"github.com/gin-gonic/gin"
)

const availableDatesCacheKey = "available-dates"

func slotsCacheKey(date string) string {
	return "slots:" + date
}

type SlotCatalogReader interface {
	ListActive(ctx context.Context) ([]slot.TimeSlot, error)
}

type BookingCounter interface {
	CountsByDateRange(ctx context.Context, from, to time.Time) (map[availability.DateSlot]int, error)
}

type SlotsHandler struct {
	slots      SlotCatalogReader
	bookings   BookingCounter
	cache      cache.Store
	windowDays int
	now        func() time.Time
}

func NewSlotsHandler(slots SlotCatalogReader, bookings BookingCounter, windowDays int) *SlotsHandler {
	return NewSlotsHandlerWithCache(slots, bookings, windowDays, nil)
}

func NewSlotsHandlerWithCache(slots SlotCatalogReader, bookings BookingCounter, windowDays int, c cache.Store) *SlotsHandler {
	if windowDays <= 0 {
		windowDays = 30
	}

	return &SlotsHandler{
		slots:      slots,
		bookings:   bookings,
		cache:      c,
		windowDays: windowDays,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SlotsForDate is the bookable view for a single date: active slots whose
// remaining capacity is still positive.
func (h *SlotsHandler) SlotsForDate(ctx *gin.Context) {
	dateStr := ctx.Query("date")

	date, err := time.Parse(appointment.DateLayout, dateStr)

	if err != nil {
		RespondBadRequest(ctx, "date must be provided as YYYY-MM-DD", nil)
		return
	}

	h.respondOpenings(ctx, slotsCacheKey(dateStr), date, date)
}

// AvailableDates is the remaining-capacity view for the rolling booking
// window starting today.
func (h *SlotsHandler) AvailableDates(ctx *gin.Context) {
	from := h.now()
	to := from.AddDate(0, 0, h.windowDays)

	h.respondOpenings(ctx, availableDatesCacheKey, from, to)
}

func (h *SlotsHandler) respondOpenings(ctx *gin.Context, cacheKey string, from, to time.Time) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if h.cache != nil {
		if raw, ok := h.cache.Get(cctx, cacheKey); ok {
			var cached []availability.Opening
			if err := json.Unmarshal(raw, &cached); err == nil {
				RespondJSONWithETag(ctx, http.StatusOK, cached)
				return
			}
		}
	}

	openings, err := h.computeOpenings(cctx, from, to)

	if err != nil {
		RespondInternal(ctx, "Could not compute availability")
		return
	}

	if h.cache != nil {
		if raw, err := json.Marshal(openings); err == nil {
			h.cache.Set(cctx, cacheKey, raw)
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, openings)
}

// computeOpenings loads the catalog and booked counts, then derives the
// bookable view. Either read failing fails the whole request; no partial
// results.
func (h *SlotsHandler) computeOpenings(ctx context.Context, from, to time.Time) ([]availability.Opening, error) {
	slots, err := h.slots.ListActive(ctx)

	if err != nil {
		return nil, err
	}

	booked, err := h.bookings.CountsByDateRange(ctx, from, to)

	if err != nil {
		return nil, err
	}

	return availability.Compute(slots, booked, from, to, h.now()), nil
}
