// Package repository implements the MySQL turn-state store consumed by the
// booking engine.  Commits run inside a transaction holding a row lock on
// the turn, so the "positions still free" check and the write happen as one
// atomic unit; concurrent commits on the same turn serialize and the loser
// gets booking.ErrConflict.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gokartmania/turn-reservation/internal/booking"
	"github.com/gokartmania/turn-reservation/internal/model"
)

// TurnRepo provides turn, position and block persistence over MySQL.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo constructs a TurnRepo bound to the given database.
func NewTurnRepo(db *sql.DB) *TurnRepo { return &TurnRepo{db: db} }

// DB exposes the underlying handle so callers sharing the pool (the
// reservation repo) can open transactions.
func (r *TurnRepo) DB() *sql.DB { return r.db }

// Turn returns the turn at key.  Missing rows materialize lazily as an
// all-free turn with version zero.
func (r *TurnRepo) Turn(ctx context.Context, key model.TurnKey) (model.Turn, error) {
	t := model.Turn{Key: key}
	const q = `SELECT id, version FROM turns WHERE date = ? AND schedule = ? AND turn_number = ?`
	err := r.db.QueryRowContext(ctx, q, key.Date, key.Schedule, key.TurnNumber).Scan(&t.ID, &t.Version)
	if err != nil && err != sql.ErrNoRows {
		return model.Turn{}, err
	}
	const blockQ = `SELECT COUNT(*) FROM blocks WHERE date = ? AND schedule = ? AND turn_number = ?`
	var blocked int
	if err := r.db.QueryRowContext(ctx, blockQ, key.Date, key.Schedule, key.TurnNumber).Scan(&blocked); err != nil {
		return model.Turn{}, err
	}
	t.Blocked = blocked > 0
	if t.ID == 0 {
		return t, nil
	}
	const posQ = `SELECT tp.position, tp.pilot_id, tp.reservation_id, p.nickname
	              FROM turn_positions tp
	              JOIN pilots p ON p.id = tp.pilot_id
	              WHERE tp.turn_id = ?
	              ORDER BY tp.position`
	rows, err := r.db.QueryContext(ctx, posQ, t.ID)
	if err != nil {
		return model.Turn{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var pos int
		var occ model.Occupant
		if err := rows.Scan(&pos, &occ.PilotID, &occ.ReservationID, &occ.Nickname); err != nil {
			return model.Turn{}, err
		}
		if t.Positions == nil {
			t.Positions = make(map[int]model.Occupant)
		}
		t.Positions[pos] = occ
	}
	if err := rows.Err(); err != nil {
		return model.Turn{}, err
	}
	return t, nil
}

// TurnsByDate returns every materialized turn of the date.  Blocked turns
// that have no bookings yet still appear, carrying only the block flag.
func (r *TurnRepo) TurnsByDate(ctx context.Context, date string) ([]model.Turn, error) {
	byDate, err := r.TurnsInRange(ctx, date, date)
	if err != nil {
		return nil, err
	}
	return byDate[date], nil
}

// TurnsInRange returns materialized turns for every date in [start, end],
// keyed by date.  Three queries: turn rows, their positions, and blocks;
// assembled in memory.
func (r *TurnRepo) TurnsInRange(ctx context.Context, start, end string) (map[string][]model.Turn, error) {
	index := make(map[model.TurnKey]*model.Turn)

	const turnQ = `SELECT id, DATE_FORMAT(date, '%Y-%m-%d'), schedule, turn_number, version
	               FROM turns WHERE date BETWEEN ? AND ?`
	rows, err := r.db.QueryContext(ctx, turnQ, start, end)
	if err != nil {
		return nil, err
	}
	ids := make([]interface{}, 0)
	byID := make(map[uint64]*model.Turn)
	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.ID, &t.Key.Date, &t.Key.Schedule, &t.Key.TurnNumber, &t.Version); err != nil {
			rows.Close()
			return nil, err
		}
		index[t.Key] = &t
		byID[t.ID] = &t
		ids = append(ids, t.ID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		posQ := `SELECT tp.turn_id, tp.position, tp.pilot_id, tp.reservation_id, p.nickname
		         FROM turn_positions tp
		         JOIN pilots p ON p.id = tp.pilot_id
		         WHERE tp.turn_id IN (` + placeholders + `)`
		prows, err := r.db.QueryContext(ctx, posQ, ids...)
		if err != nil {
			return nil, err
		}
		for prows.Next() {
			var turnID uint64
			var pos int
			var occ model.Occupant
			if err := prows.Scan(&turnID, &pos, &occ.PilotID, &occ.ReservationID, &occ.Nickname); err != nil {
				prows.Close()
				return nil, err
			}
			t := byID[turnID]
			if t == nil {
				continue
			}
			if t.Positions == nil {
				t.Positions = make(map[int]model.Occupant)
			}
			t.Positions[pos] = occ
		}
		if err := prows.Close(); err != nil {
			return nil, err
		}
	}

	const blockQ = `SELECT DATE_FORMAT(date, '%Y-%m-%d'), schedule, turn_number
	                FROM blocks WHERE date BETWEEN ? AND ?`
	brows, err := r.db.QueryContext(ctx, blockQ, start, end)
	if err != nil {
		return nil, err
	}
	for brows.Next() {
		var key model.TurnKey
		if err := brows.Scan(&key.Date, &key.Schedule, &key.TurnNumber); err != nil {
			brows.Close()
			return nil, err
		}
		if t, ok := index[key]; ok {
			t.Blocked = true
		} else {
			index[key] = &model.Turn{Key: key, Blocked: true}
		}
	}
	if err := brows.Close(); err != nil {
		return nil, err
	}

	out := make(map[string][]model.Turn, len(index))
	for key, t := range index {
		out[key.Date] = append(out[key.Date], *t)
	}
	return out, nil
}

// CommitAssignment atomically writes the reservation's kart assignment onto
// the turn.  The turn row is created if absent and locked FOR UPDATE; the
// block check, the conflict check against other reservations and the
// position writes all happen under that lock.  Prior positions of the same
// reservation on this turn are replaced, so edits never conflict with
// themselves.
func (r *TurnRepo) CommitAssignment(ctx context.Context, key model.TurnKey, positions map[int]uint64, reservationID uint64) (model.Turn, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Turn{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Materialize the turn row; LAST_INSERT_ID(id) makes the existing id
	// observable when the row was already there.
	const upsert = `INSERT INTO turns (date, schedule, turn_number)
	                VALUES (?, ?, ?)
	                ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	result, err := tx.ExecContext(ctx, upsert, key.Date, key.Schedule, key.TurnNumber)
	if err != nil {
		return model.Turn{}, err
	}
	rawID, err := result.LastInsertId()
	if err != nil {
		return model.Turn{}, err
	}
	turnID := uint64(rawID)

	// Serialize concurrent commits on this turn.
	var version uint32
	if err := tx.QueryRowContext(ctx, `SELECT version FROM turns WHERE id = ? FOR UPDATE`, turnID).Scan(&version); err != nil {
		return model.Turn{}, err
	}

	var blocked int
	const blockQ = `SELECT COUNT(*) FROM blocks WHERE date = ? AND schedule = ? AND turn_number = ?`
	if err := tx.QueryRowContext(ctx, blockQ, key.Date, key.Schedule, key.TurnNumber).Scan(&blocked); err != nil {
		return model.Turn{}, err
	}
	if blocked > 0 {
		return model.Turn{}, booking.ErrTurnBlocked
	}

	// Positions held by other reservations conflict; our own are replaced.
	taken := make(map[int]uint64)
	prows, err := tx.QueryContext(ctx, `SELECT position, reservation_id FROM turn_positions WHERE turn_id = ?`, turnID)
	if err != nil {
		return model.Turn{}, err
	}
	for prows.Next() {
		var pos int
		var owner uint64
		if err := prows.Scan(&pos, &owner); err != nil {
			prows.Close()
			return model.Turn{}, err
		}
		taken[pos] = owner
	}
	if err := prows.Close(); err != nil {
		return model.Turn{}, err
	}
	occupiedByOthers := 0
	for pos, owner := range taken {
		if owner != reservationID {
			occupiedByOthers++
			if _, wanted := positions[pos]; wanted {
				return model.Turn{}, booking.ErrConflict
			}
		}
	}
	if occupiedByOthers+len(positions) > model.PositionCount {
		return model.Turn{}, booking.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM turn_positions WHERE turn_id = ? AND reservation_id = ?`, turnID, reservationID); err != nil {
		return model.Turn{}, err
	}
	if len(positions) > 0 {
		query := `INSERT INTO turn_positions (turn_id, position, pilot_id, reservation_id) VALUES `
		args := make([]interface{}, 0, len(positions)*4)
		first := true
		for pos, pilotID := range positions {
			if !first {
				query += ","
			}
			first = false
			query += "(?, ?, ?, ?)"
			args = append(args, turnID, pos, pilotID, reservationID)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return model.Turn{}, err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE turns SET version = version + 1 WHERE id = ?`, turnID); err != nil {
		return model.Turn{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Turn{}, err
	}
	committed = true
	return r.Turn(ctx, key)
}

// ReleaseTurn frees the reservation's positions on one turn and bumps the
// turn version so concurrent committers re-observe occupancy.
func (r *TurnRepo) ReleaseTurn(ctx context.Context, reservationID, turnID uint64) error {
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM turn_positions WHERE turn_id = ? AND reservation_id = ?`, turnID, reservationID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE turns SET version = version + 1 WHERE id = ?`, turnID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReleaseByDate frees every position the reservation holds on the date and
// reports how many karts were released.
func (r *TurnRepo) ReleaseByDate(ctx context.Context, reservationID uint64, date string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const del = `DELETE tp FROM turn_positions tp
	             JOIN turns t ON t.id = tp.turn_id
	             WHERE tp.reservation_id = ? AND t.date = ?`
	result, err := tx.ExecContext(ctx, del, reservationID, date)
	if err != nil {
		return 0, err
	}
	released, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE turns SET version = version + 1 WHERE date = ?`, date); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return int(released), nil
}

// SetBlocked applies or removes the administrative block on each key.
// Occupancy is never touched; existing parties keep racing.
func (r *TurnRepo) SetBlocked(ctx context.Context, keys []model.TurnKey, blocked bool) error {
	if len(keys) == 0 {
		return nil
	}
	if blocked {
		query := `INSERT IGNORE INTO blocks (date, schedule, turn_number) VALUES `
		args := make([]interface{}, 0, len(keys)*3)
		for i, k := range keys {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, k.Date, k.Schedule, k.TurnNumber)
		}
		_, err := r.db.ExecContext(ctx, query, args...)
		return err
	}
	conds := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)*3)
	for _, k := range keys {
		conds = append(conds, "(date = ? AND schedule = ? AND turn_number = ?)")
		args = append(args, k.Date, k.Schedule, k.TurnNumber)
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM blocks WHERE `+strings.Join(conds, " OR "), args...)
	return err
}

// BlockedTurns lists the blocked turn keys of a date.
func (r *TurnRepo) BlockedTurns(ctx context.Context, date string) ([]model.TurnKey, error) {
	const q = `SELECT DATE_FORMAT(date, '%Y-%m-%d'), schedule, turn_number
	           FROM blocks WHERE date = ? ORDER BY schedule, turn_number`
	rows, err := r.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make([]model.TurnKey, 0)
	for rows.Next() {
		var k model.TurnKey
		if err := rows.Scan(&k.Date, &k.Schedule, &k.TurnNumber); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
