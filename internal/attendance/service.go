package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend-fieldtrack/internal/db"
	"backend-fieldtrack/internal/shared/geo"
	"backend-fieldtrack/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultTimeout = 5 * time.Second

type Service struct {
	db      db.Querier
	hub     *stream.Hub
	timeout time.Duration
	locks   *keyedMutex
}

func NewService(db db.Querier, hub *stream.Hub, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{db: db, hub: hub, timeout: timeout, locks: newKeyedMutex()}
}

// CheckIn opens a new session for the partner at the location. The
// location and partner lookups are advisory: nothing is reserved, and
// neither reference is re-validated later in the session's life.
func (s *Service) CheckIn(ctx context.Context, partnerID, locationID string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var locationDeleted bool
	err := s.db.QueryRow(ctx, `SELECT is_deleted FROM locations WHERE id=$1`, locationID).Scan(&locationDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: location %s not found", ErrInvalidReference, locationID)
	}
	if err != nil {
		return Session{}, storeErr(err)
	}
	if locationDeleted {
		return Session{}, fmt.Errorf("%w: location %s is deleted", ErrInvalidReference, locationID)
	}

	var partnerExists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM partners WHERE id=$1)`, partnerID).Scan(&partnerExists); err != nil {
		return Session{}, storeErr(err)
	}
	if !partnerExists {
		return Session{}, fmt.Errorf("%w: partner %s not found", ErrInvalidReference, partnerID)
	}

	session := Session{
		ID:          uuid.NewString(),
		PartnerID:   partnerID,
		LocationID:  locationID,
		CheckInTime: time.Now(),
		Route:       []RoutePoint{},
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO attendance_sessions (id, partner_id, location_id, check_in_time)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at
	`, session.ID, session.PartnerID, session.LocationID, session.CheckInTime)
	if err := row.Scan(&session.CreatedAt, &session.UpdatedAt); err != nil {
		return Session{}, storeErr(err)
	}
	return session, nil
}

// Track appends one GPS sample to an open session and returns the new
// running total in meters. The sample is appended even when its
// coordinates are out of range; only the distance accumulator filters
// invalid fixes, so the route stays a raw ingestion log.
func (s *Service) Track(ctx context.Context, sessionID string, sample RoutePoint) (float64, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var open bool
	err := s.db.QueryRow(ctx, `SELECT check_out_time IS NULL FROM attendance_sessions WHERE id=$1`, sessionID).Scan(&open)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, storeErr(err)
	}
	if !open {
		return 0, ErrSessionNotFound
	}

	var prev geo.Coordinate
	hasPrev := true
	err = s.db.QueryRow(ctx, `
		SELECT latitude, longitude
		FROM attendance_route_points
		WHERE session_id=$1
		ORDER BY id DESC
		LIMIT 1
	`, sessionID).Scan(&prev.Latitude, &prev.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		hasPrev = false
	} else if err != nil {
		return 0, storeErr(err)
	}

	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now()
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO attendance_route_points (session_id, latitude, longitude, is_mock, is_base_location, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, sessionID, sample.Latitude, sample.Longitude, sample.IsMock, sample.IsBaseLocation, sample.RecordedAt)
	if err != nil {
		return 0, storeErr(err)
	}

	delta := 0.0
	if hasPrev &&
		geo.IsValidLocation(prev.Latitude, prev.Longitude) &&
		geo.IsValidLocation(sample.Latitude, sample.Longitude) {
		delta = geo.DistanceMeters(prev, geo.Coordinate{Latitude: sample.Latitude, Longitude: sample.Longitude})
	}

	var total float64
	err = s.db.QueryRow(ctx, `
		UPDATE attendance_sessions
		SET distance_covered_m = distance_covered_m + $2, updated_at = now()
		WHERE id=$1
		RETURNING distance_covered_m
	`, sessionID, delta).Scan(&total)
	if err != nil {
		return 0, storeErr(err)
	}

	if s.hub != nil {
		payload, _ := json.Marshal(TrackUpdate{SessionID: sessionID, Point: sample, DistanceCoveredM: total})
		s.hub.Broadcast(sessionID, payload)
	}
	return total, nil
}

// CheckOut closes an open session and returns the final distance. The
// OPEN guard lives in the WHERE clause, so an unknown id and an already
// closed session fail the same way.
func (s *Service) CheckOut(ctx context.Context, sessionID string) (float64, error) {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var total float64
	err := s.db.QueryRow(ctx, `
		UPDATE attendance_sessions
		SET check_out_time = now(), updated_at = now()
		WHERE id=$1 AND check_out_time IS NULL
		RETURNING distance_covered_m
	`, sessionID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, storeErr(err)
	}
	return total, nil
}

// Route returns the raw route in insertion order, invalid fixes included.
func (s *Service) Route(ctx context.Context, sessionID string) ([]RoutePoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT latitude, longitude, is_mock, is_base_location, recorded_at
		FROM attendance_route_points
		WHERE session_id=$1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var points []RoutePoint
	for rows.Next() {
		var p RoutePoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.IsMock, &p.IsBaseLocation, &p.RecordedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
