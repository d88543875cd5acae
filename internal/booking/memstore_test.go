package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gokartmania/turn-reservation/internal/model"
)

// memStore is an in-memory Store + ReservationStore used by the engine
// tests.  A single mutex makes every commit check-then-write atomic, the
// same guarantee the MySQL store gets from its per-turn row lock.
type memStore struct {
	mu           sync.Mutex
	nextTurnID   uint64
	nextResID    uint64
	nextPilotID  uint64
	turns        map[model.TurnKey]*memTurn
	blocks       map[model.TurnKey]bool
	reservations map[uint64]*model.Reservation
	pilotNames   map[uint64]string
}

type memTurn struct {
	id        uint64
	version   uint32
	positions map[int]model.Occupant
}

func newMemStore() *memStore {
	return &memStore{
		turns:        make(map[model.TurnKey]*memTurn),
		blocks:       make(map[model.TurnKey]bool),
		reservations: make(map[uint64]*model.Reservation),
		pilotNames:   make(map[uint64]string),
	}
}

func (s *memStore) turnLocked(key model.TurnKey) model.Turn {
	t := model.Turn{Key: key, Blocked: s.blocks[key]}
	if mt, ok := s.turns[key]; ok {
		t.ID = mt.id
		t.Version = mt.version
		if len(mt.positions) > 0 {
			t.Positions = make(map[int]model.Occupant, len(mt.positions))
			for pos, occ := range mt.positions {
				t.Positions[pos] = occ
			}
		}
	}
	return t
}

func (s *memStore) Turn(ctx context.Context, key model.TurnKey) (model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnLocked(key), nil
}

func (s *memStore) TurnsByDate(ctx context.Context, date string) ([]model.Turn, error) {
	byDate, err := s.TurnsInRange(ctx, date, date)
	if err != nil {
		return nil, err
	}
	return byDate[date], nil
}

func (s *memStore) TurnsInRange(ctx context.Context, start, end string) (map[string][]model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]model.Turn)
	seen := make(map[model.TurnKey]bool)
	for key := range s.turns {
		if key.Date >= start && key.Date <= end {
			out[key.Date] = append(out[key.Date], s.turnLocked(key))
			seen[key] = true
		}
	}
	for key := range s.blocks {
		if !seen[key] && key.Date >= start && key.Date <= end {
			out[key.Date] = append(out[key.Date], s.turnLocked(key))
		}
	}
	return out, nil
}

func (s *memStore) CommitAssignment(ctx context.Context, key model.TurnKey, positions map[int]uint64, reservationID uint64) (model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blocks[key] {
		return model.Turn{}, ErrTurnBlocked
	}
	mt, ok := s.turns[key]
	if !ok {
		s.nextTurnID++
		mt = &memTurn{id: s.nextTurnID, positions: make(map[int]model.Occupant)}
		s.turns[key] = mt
	}
	others := 0
	for pos, occ := range mt.positions {
		if occ.ReservationID == reservationID {
			continue
		}
		others++
		if _, wanted := positions[pos]; wanted {
			return model.Turn{}, ErrConflict
		}
	}
	if others+len(positions) > model.PositionCount {
		return model.Turn{}, ErrConflict
	}
	for pos, occ := range mt.positions {
		if occ.ReservationID == reservationID {
			delete(mt.positions, pos)
		}
	}
	for pos, pilotID := range positions {
		mt.positions[pos] = model.Occupant{
			PilotID:       pilotID,
			ReservationID: reservationID,
			Nickname:      s.pilotNames[pilotID],
		}
	}
	mt.version++
	return s.turnLocked(key), nil
}

func (s *memStore) ReleaseTurn(ctx context.Context, reservationID, turnID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mt := range s.turns {
		if mt.id != turnID {
			continue
		}
		for pos, occ := range mt.positions {
			if occ.ReservationID == reservationID {
				delete(mt.positions, pos)
			}
		}
		mt.version++
	}
	return nil
}

func (s *memStore) ReleaseByDate(ctx context.Context, reservationID uint64, date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	released := 0
	for key, mt := range s.turns {
		if key.Date != date {
			continue
		}
		for pos, occ := range mt.positions {
			if occ.ReservationID == reservationID {
				delete(mt.positions, pos)
				released++
			}
		}
		mt.version++
	}
	return released, nil
}

func (s *memStore) SetBlocked(ctx context.Context, keys []model.TurnKey, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if blocked {
			s.blocks[key] = true
		} else {
			delete(s.blocks, key)
		}
	}
	return nil
}

func (s *memStore) BlockedTurns(ctx context.Context, date string) ([]model.TurnKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]model.TurnKey, 0)
	for key := range s.blocks {
		if key.Date == date {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Schedule != keys[j].Schedule {
			return keys[i].Schedule < keys[j].Schedule
		}
		return keys[i].TurnNumber < keys[j].TurnNumber
	})
	return keys, nil
}

func (s *memStore) CreateReservation(ctx context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextResID++
	res.ID = s.nextResID
	res.CreatedAt = time.Now().UTC()
	for i := range res.Pilots {
		s.nextPilotID++
		res.Pilots[i].ID = s.nextPilotID
		s.pilotNames[res.Pilots[i].ID] = res.Pilots[i].Nickname
	}
	stored := *res
	stored.Pilots = append([]model.Pilot(nil), res.Pilots...)
	s.reservations[res.ID] = &stored
	return nil
}

func (s *memStore) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	res := *stored
	res.Pilots = append([]model.Pilot(nil), stored.Pilots...)
	res.Turns = nil
	keys := make([]model.TurnKey, 0, len(s.turns))
	for key := range s.turns {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Schedule != b.Schedule {
			return a.Schedule < b.Schedule
		}
		return a.TurnNumber < b.TurnNumber
	})
	for _, key := range keys {
		mt := s.turns[key]
		var positions map[int]uint64
		for pos, occ := range mt.positions {
			if occ.ReservationID != id {
				continue
			}
			if positions == nil {
				positions = make(map[int]uint64)
			}
			positions[pos] = occ.PilotID
		}
		if positions != nil {
			res.Turns = append(res.Turns, model.ReservationTurn{
				TurnID:     mt.id,
				Date:       key.Date,
				Schedule:   key.Schedule,
				TurnNumber: key.TurnNumber,
				Positions:  positions,
			})
		}
	}
	return &res, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id uint64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	stored.Status = status
	return nil
}
