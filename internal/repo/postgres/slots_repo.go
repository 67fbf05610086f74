package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/domain/slot"
	"github.com/fasfaisa/Appointment-sheduling/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSlotsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SlotsRepo {
	return &SlotsRepo{pool: pool, prom: prom}
}

func (r *SlotsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// EnsureDefaults seeds one slot per hour in [startHour, endHour). Keyed by the
// unique slot_time, so calling it on every boot leaves exactly one row per
// defined hour.
func (r *SlotsRepo) EnsureDefaults(ctx context.Context, startHour, endHour, capacity int) error {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return fmt.Errorf("invalid slot window [%d, %d)", startHour, endHour)
	}
	if capacity < 1 {
		capacity = 1
	}

	now := time.Now().UTC()

	for h := startHour; h < endHour; h++ {
		at := fmt.Sprintf("%02d:00:00", h)

		err := r.observe("slots.ensure_defaults", func() error {
			_, e := r.pool.Exec(ctx,
				`INSERT INTO time_slots (id, slot_time, capacity, is_active, created_at, updated_at)
				 VALUES ($1,$2,$3,TRUE,$4,$4)
				 ON CONFLICT (slot_time) DO NOTHING`,
				uuid.NewString(), at, capacity, now,
			)
			return e
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// SetAllCapacity bulk-updates capacity across the catalog. Matching zero rows
// is not an error.
func (r *SlotsRepo) SetAllCapacity(ctx context.Context, capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("capacity must be positive, got %d", capacity)
	}

	return r.observe("slots.set_all_capacity", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE time_slots SET capacity = $1, updated_at = NOW()`, capacity)
		return err
	})
}

func (r *SlotsRepo) ListActive(ctx context.Context) (slots []slot.TimeSlot, err error) {
	var rows pgx.Rows

	err = r.observe("slots.list_active", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id, slot_time, capacity, is_active, created_at, updated_at
			 FROM time_slots
			 WHERE is_active
			 ORDER BY slot_time ASC`,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	slots = make([]slot.TimeSlot, 0)

	for rows.Next() {
		var s slot.TimeSlot

		e := rows.Scan(&s.ID, &s.Time, &s.Capacity, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)

		if e != nil {
			err = e
			return
		}
		slots = append(slots, s)
	}

	if e := rows.Err(); e != nil {
		if r.prom != nil {
			r.prom.DbErrorsTotal.WithLabelValues("slots.list_active", "rows_err").Inc()
		}
		err = e
		return
	}

	return
}
