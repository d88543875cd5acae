package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gokartmania/turn-reservation/internal/booking"
	"github.com/gokartmania/turn-reservation/internal/model"
)

// ReservationRepo persists reservations and their parties.  Turn occupancy
// lives in turn_positions; a reservation's turns are reconstructed from
// there when the reservation is loaded.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateReservation inserts the reservation and its pilots in one
// transaction, populating the generated ids on the passed structs.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO reservations (race_group, status) VALUES (?, ?)`
	result, err := tx.ExecContext(ctx, q, string(res.Group), res.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	// Pilots are inserted one by one: each needs its generated id so the
	// workflow can translate party indexes into pilot ids.
	const pilotQ = `INSERT INTO pilots (reservation_id, name, last_name, nickname, birth_date, licensed, buy_license)
	                VALUES (?, ?, ?, ?, ?, ?, ?)`
	for i := range res.Pilots {
		p := &res.Pilots[i]
		var birth interface{}
		if !p.BirthDate.IsZero() {
			birth = p.BirthDate.UTC().Format(model.DateFormat)
		}
		result, err := tx.ExecContext(ctx, pilotQ, res.ID, p.Name, p.LastName, p.Nickname, birth, p.Licensed, p.BuyLicense)
		if err != nil {
			return err
		}
		pid, err := result.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(pid)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Reservation loads a reservation with its party and committed turns.
func (r *ReservationRepo) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, race_group, status, payment_ref, created_at FROM reservations WHERE id = ?`
	var res model.Reservation
	var group string
	var payRef sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&res.ID, &group, &res.Status, &payRef, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrReservationNotFound
		}
		return nil, err
	}
	res.Group = model.Group(group)
	if payRef.Valid {
		ref := payRef.String
		res.PaymentRef = &ref
	}

	const pilotQ = `SELECT id, name, last_name, nickname, birth_date, licensed, buy_license, created_at
	                FROM pilots WHERE reservation_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, pilotQ, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p model.Pilot
		var lastName sql.NullString
		var birth sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &lastName, &p.Nickname, &birth, &p.Licensed, &p.BuyLicense, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		p.LastName = lastName.String
		if birth.Valid {
			p.BirthDate = birth.Time
		}
		res.Pilots = append(res.Pilots, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	// Reconstruct turns from the position rows this reservation holds.
	const turnQ = `SELECT t.id, DATE_FORMAT(t.date, '%Y-%m-%d'), t.schedule, t.turn_number, tp.position, tp.pilot_id
	               FROM turn_positions tp
	               JOIN turns t ON t.id = tp.turn_id
	               WHERE tp.reservation_id = ?
	               ORDER BY t.date, t.schedule, t.turn_number, tp.position`
	trows, err := r.db.QueryContext(ctx, turnQ, id)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	index := make(map[uint64]int)
	for trows.Next() {
		var turnID, pilotID uint64
		var date, schedule string
		var turnNumber, position int
		if err := trows.Scan(&turnID, &date, &schedule, &turnNumber, &position, &pilotID); err != nil {
			return nil, err
		}
		i, ok := index[turnID]
		if !ok {
			res.Turns = append(res.Turns, model.ReservationTurn{
				TurnID:     turnID,
				Date:       date,
				Schedule:   schedule,
				TurnNumber: turnNumber,
				Positions:  make(map[int]uint64),
			})
			i = len(res.Turns) - 1
			index[turnID] = i
		}
		res.Turns[i].Positions[position] = pilotID
	}
	if err := trows.Err(); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateStatus moves the reservation between its lifecycle states.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	// RowsAffected is zero both for unknown ids and no-op updates, so an
	// existence probe disambiguates only when nothing changed.
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return booking.ErrReservationNotFound
		}
	}
	return nil
}
