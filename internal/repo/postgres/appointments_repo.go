package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/availability"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/appointment"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/slot"
	"github.com/fasfaisa/Appointment-sheduling/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAppointmentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AppointmentsRepo {
	return &AppointmentsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *AppointmentsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {

		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *AppointmentsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

// CreateTx runs the capacity-checked insert inside the caller's transaction.
// The FOR UPDATE on the slot row serializes concurrent bookings for the same
// slot; the booked count then runs as its own statement so it observes rows
// committed while this transaction was waiting on the lock.
func (repo *AppointmentsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req appointment.CreateAppointmentRequest) (appt appointment.Appointment, err error) {
	date, err := time.Parse(appointment.DateLayout, req.Date)

	if err != nil {
		return
	}

	// 1) lock the slot row
	var capacity int
	var isActive bool
	err = repo.observe("appointments.create_tx.slot_lock", func() error {
		return tx.QueryRow(ctx, `
		SELECT capacity, is_active
		FROM time_slots
		WHERE id = $1
		FOR UPDATE
	`, req.TimeSlotID).Scan(&capacity, &isActive)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = slot.ErrNotFound
		}

		return
	}

	if !isActive {
		err = slot.ErrInactive
		return
	}

	// 2) re-count under the lock. This must stay a separate statement: under
	// read committed each new statement takes a fresh snapshot, so a count
	// issued after the lock wait sees the winner's committed insert. Folded
	// into the locking select it would still read the pre-wait snapshot and
	// two racers on a capacity-1 slot could both count zero.
	var current int
	err = repo.observe("appointments.create_tx.booked_count", func() error {
		return tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments WHERE date = $1 AND time_slot_id = $2
	`, date, req.TimeSlotID).Scan(&current)
	})

	if err != nil {
		return
	}

	if current >= capacity {
		err = appointment.ErrSlotFull
		return
	}

	appt = appointment.NewFromCreateRequest(req)

	err = repo.observe("appointments.create_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO appointments (id, user_id, date, time_slot_id, notes, name, contact, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, appt.ID, appt.UserID, date, appt.TimeSlotID, appt.Notes, appt.Name, appt.Contact, appt.Status, appt.CreatedAt, appt.UpdatedAt)
		return e
	})

	return
}

// Create enforces capacity and the insert in a single transaction.
func (repo *AppointmentsRepo) Create(ctx context.Context, req appointment.CreateAppointmentRequest) (appt appointment.Appointment, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	appt, err = repo.CreateTx(ctx, tx, req)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return
}

// CountsByDateRange feeds the availability calculator: bookings grouped by
// (date, slot) over [from, to] inclusive.
func (repo *AppointmentsRepo) CountsByDateRange(ctx context.Context, from, to time.Time) (counts map[availability.DateSlot]int, err error) {
	var rows pgx.Rows

	// compare at date precision; a timestamp bound would drop today's rows
	err = repo.observe("appointments.counts_by_date_range", func() error {
		rows, err = repo.pool.Query(ctx, `
		SELECT date, time_slot_id, COUNT(*)
		FROM appointments
		WHERE date BETWEEN $1::date AND $2::date
		GROUP BY date, time_slot_id
	`, from.Format(appointment.DateLayout), to.Format(appointment.DateLayout))
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	counts = make(map[availability.DateSlot]int)

	for rows.Next() {
		var d time.Time
		var slotID string
		var n int

		e := rows.Scan(&d, &slotID, &n)

		if e != nil {
			err = e
			return
		}

		counts[availability.DateSlot{Date: d.Format(appointment.DateLayout), SlotID: slotID}] = n
	}

	if e := rows.Err(); e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues("appointments.counts_by_date_range", "rows_err").Inc()
		}
		err = e
		return
	}

	return
}

const listSelect = `
	SELECT a.id, a.user_id, a.date, a.time_slot_id, a.notes, a.name, a.contact,
	       a.status, a.created_at, a.updated_at, ts.slot_time, u.name AS user_name
	FROM appointments a
	JOIN time_slots ts ON a.time_slot_id = ts.id
	JOIN users u ON a.user_id = u.id
`

func (repo *AppointmentsRepo) ListByUser(ctx context.Context, userID string) ([]appointment.Appointment, error) {
	return repo.list(ctx, "appointments.list_by_user",
		listSelect+` WHERE a.user_id = $1 ORDER BY a.date ASC, ts.slot_time ASC`, userID)
}

func (repo *AppointmentsRepo) ListAll(ctx context.Context) ([]appointment.Appointment, error) {
	return repo.list(ctx, "appointments.list_all",
		listSelect+` ORDER BY a.date ASC, ts.slot_time ASC`)
}

func (repo *AppointmentsRepo) list(ctx context.Context, op, query string, args ...any) (appts []appointment.Appointment, err error) {
	var rows pgx.Rows

	err = repo.observe(op, func() error {
		rows, err = repo.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	appts = make([]appointment.Appointment, 0)

	for rows.Next() {
		var a appointment.Appointment
		var d time.Time

		e := rows.Scan(&a.ID, &a.UserID, &d, &a.TimeSlotID, &a.Notes, &a.Name, &a.Contact,
			&a.Status, &a.CreatedAt, &a.UpdatedAt, &a.SlotTime, &a.UserName)

		if e != nil {
			err = e
			return
		}

		a.Date = d.Format(appointment.DateLayout)
		appts = append(appts, a)
	}

	if e := rows.Err(); e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues(op, "rows_err").Inc()
		}
		err = e
		return
	}

	return
}

// Delete removes a booking only when it belongs to userID. Deleting a missing
// or foreign id is a silent no-op; cancel is idempotent. The freed date comes
// back so callers can invalidate availability views ("" when nothing matched).
func (repo *AppointmentsRepo) Delete(ctx context.Context, id, userID string) (date string, err error) {
	var d time.Time

	err = repo.observe("appointments.delete", func() error {
		return repo.pool.QueryRow(ctx,
			`DELETE FROM appointments WHERE id = $1 AND user_id = $2 RETURNING date`, id, userID).Scan(&d)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return
	}

	date = d.Format(appointment.DateLayout)
	return
}

func (repo *AppointmentsRepo) UpdateStatus(ctx context.Context, id, status string) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("appointments.update_status", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx,
			`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = appointment.ErrNotFound
		return
	}

	return
}
