package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-fieldtrack/internal/shared/geo"
	"backend-fieldtrack/internal/stream"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func TestCheckInTrackCheckOut(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock, nil, 0)

	mock.ExpectQuery(`SELECT is_deleted FROM locations`).
		WithArgs("location-1").
		WillReturnRows(pgxmock.NewRows([]string{"is_deleted"}).AddRow(false))

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM partners`).
		WithArgs("partner-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(`INSERT INTO attendance_sessions`).
		WithArgs(pgxmock.AnyArg(), "partner-1", "location-1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	session, err := svc.CheckIn(context.Background(), "partner-1", "location-1")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if session.ID == "" || session.CheckOutTime != nil || session.DistanceCoveredM != 0 {
		t.Fatalf("unexpected session state after check-in")
	}
	if len(session.Route) != 0 {
		t.Fatalf("expected empty route after check-in")
	}

	// first sample: nothing to measure against, total stays 0
	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs(session.ID).
		WillReturnRows(pgxmock.NewRows([]string{"open"}).AddRow(true))

	mock.ExpectQuery(`SELECT latitude, longitude`).
		WithArgs(session.ID).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectExec(`INSERT INTO attendance_route_points`).
		WithArgs(session.ID, 37.7749, -122.4194, false, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`UPDATE attendance_sessions`).
		WithArgs(session.ID, 0.0).
		WillReturnRows(pgxmock.NewRows([]string{"distance_covered_m"}).AddRow(0.0))

	total, err := svc.Track(context.Background(), session.ID, RoutePoint{Latitude: 37.7749, Longitude: -122.4194})
	if err != nil {
		t.Fatalf("first track: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected zero distance after first sample, got %v", total)
	}

	// second sample one block away: haversine delta lands on the total
	delta := geo.DistanceMeters(
		geo.Coordinate{Latitude: 37.7749, Longitude: -122.4194},
		geo.Coordinate{Latitude: 37.7750, Longitude: -122.4180},
	)

	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs(session.ID).
		WillReturnRows(pgxmock.NewRows([]string{"open"}).AddRow(true))

	mock.ExpectQuery(`SELECT latitude, longitude`).
		WithArgs(session.ID).
		WillReturnRows(pgxmock.NewRows([]string{"latitude", "longitude"}).AddRow(37.7749, -122.4194))

	mock.ExpectExec(`INSERT INTO attendance_route_points`).
		WithArgs(session.ID, 37.7750, -122.4180, false, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`UPDATE attendance_sessions`).
		WithArgs(session.ID, delta).
		WillReturnRows(pgxmock.NewRows([]string{"distance_covered_m"}).AddRow(delta))

	total, err = svc.Track(context.Background(), session.ID, RoutePoint{Latitude: 37.7750, Longitude: -122.4180})
	if err != nil {
		t.Fatalf("second track: %v", err)
	}
	if total < 115 || total > 135 {
		t.Fatalf("expected roughly 124m, got %v", total)
	}

	mock.ExpectQuery(`UPDATE attendance_sessions`).
		WithArgs(session.ID).
		WillReturnRows(pgxmock.NewRows([]string{"distance_covered_m"}).AddRow(total))

	final, err := svc.CheckOut(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if final != total {
		t.Fatalf("expected frozen total %v, got %v", total, final)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTrackInvalidPrevSkipsDistance(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock, nil, 0)

	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs("session-1").
		WillReturnRows(pgxmock.NewRows([]string{"open"}).AddRow(true))

	// previous fix is out of range: sample still appended, delta stays 0
	mock.ExpectQuery(`SELECT latitude, longitude`).
		WithArgs("session-1").
		WillReturnRows(pgxmock.NewRows([]string{"latitude", "longitude"}).AddRow(91.0, 0.0))

	mock.ExpectExec(`INSERT INTO attendance_route_points`).
		WithArgs("session-1", 37.7749, -122.4194, false, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`UPDATE attendance_sessions`).
		WithArgs("session-1", 0.0).
		WillReturnRows(pgxmock.NewRows([]string{"distance_covered_m"}).AddRow(0.0))

	total, err := svc.Track(context.Background(), "session-1", RoutePoint{Latitude: 37.7749, Longitude: -122.4194})
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected unchanged total, got %v", total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTrackInvalidSampleSkipsDistance(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock, nil, 0)

	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs("session-1").
		WillReturnRows(pgxmock.NewRows([]string{"open"}).AddRow(true))

	mock.ExpectQuery(`SELECT latitude, longitude`).
		WithArgs("session-1").
		WillReturnRows(pgxmock.NewRows([]string{"latitude", "longitude"}).AddRow(37.7749, -122.4194))

	mock.ExpectExec(`INSERT INTO attendance_route_points`).
		WithArgs("session-1", 95.0, 200.0, true, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`UPDATE attendance_sessions`).
		WithArgs("session-1", 0.0).
		WillReturnRows(pgxmock.NewRows([]string{"distance_covered_m"}).AddRow(42.0))

	total, err := svc.Track(context.Background(), "session-1", RoutePoint{Latitude: 95.0, Longitude: 200.0, IsMock: true})
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if total != 42.0 {
		t.Fatalf("unexpected total: %v", total)
	}
}

func TestTrackUnknownSession(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock, nil, 0)
	_, err = svc.Track(context.Background(), "missing", RoutePoint{Latitude: 1, Longitude: 1})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestTrackClosedSession(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs("closed").
		WillReturnRows(pgxmock.NewRows([]string{"open"}).AddRow(false))

	svc := NewService(mock, nil, 0)
	_, err = svc.Track(context.Background(), "closed", RoutePoint{Latitude: 1, Longitude: 1})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCheckOutClosedOrUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`UPDATE attendance_sessions`).
		WithArgs("gone").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock, nil, 0)
	_, err = svc.CheckOut(context.Background(), "gone")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCheckInDeletedLocation(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT is_deleted FROM locations`).
		WithArgs("location-del").
		WillReturnRows(pgxmock.NewRows([]string{"is_deleted"}).AddRow(true))

	svc := NewService(mock, nil, 0)
	_, err = svc.CheckIn(context.Background(), "partner-1", "location-del")
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestCheckInMissingLocation(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT is_deleted FROM locations`).
		WithArgs("location-missing").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock, nil, 0)
	_, err = svc.CheckIn(context.Background(), "partner-1", "location-missing")
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestCheckInMissingPartner(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT is_deleted FROM locations`).
		WithArgs("location-1").
		WillReturnRows(pgxmock.NewRows([]string{"is_deleted"}).AddRow(false))

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM partners`).
		WithArgs("partner-missing").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	svc := NewService(mock, nil, 0)
	_, err = svc.CheckIn(context.Background(), "partner-missing", "location-1")
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestCheckInInsertError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT is_deleted FROM locations`).
		WithArgs("location-1").
		WillReturnRows(pgxmock.NewRows([]string{"is_deleted"}).AddRow(false))

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM partners`).
		WithArgs("partner-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(`INSERT INTO attendance_sessions`).
		WithArgs(pgxmock.AnyArg(), "partner-1", "location-1", pgxmock.AnyArg()).
		WillReturnError(errAttendance)

	svc := NewService(mock, nil, 0)
	_, err = svc.CheckIn(context.Background(), "partner-1", "location-1")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestTrackTimeoutIsUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs("session-1").
		WillReturnError(context.DeadlineExceeded)

	svc := NewService(mock, nil, 0)
	_, err = svc.Track(context.Background(), "session-1", RoutePoint{Latitude: 1, Longitude: 1})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTrackBroadcastsUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hub := stream.NewHub(nil)
	watcher := hub.Register("session-live")
	defer hub.Unregister(watcher)

	mock.ExpectQuery(`SELECT check_out_time IS NULL FROM attendance_sessions`).
		WithArgs("session-live").
		WillReturnRows(pgxmock.NewRows([]string{"open"}).AddRow(true))

	mock.ExpectQuery(`SELECT latitude, longitude`).
		WithArgs("session-live").
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectExec(`INSERT INTO attendance_route_points`).
		WithArgs("session-live", 37.7749, -122.4194, false, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`UPDATE attendance_sessions`).
		WithArgs("session-live", 0.0).
		WillReturnRows(pgxmock.NewRows([]string{"distance_covered_m"}).AddRow(0.0))

	svc := NewService(mock, hub, 0)
	if _, err := svc.Track(context.Background(), "session-live", RoutePoint{Latitude: 37.7749, Longitude: -122.4194}); err != nil {
		t.Fatalf("track: %v", err)
	}

	select {
	case msg := <-watcher.Send:
		if len(msg) == 0 {
			t.Fatalf("expected broadcast payload")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}
}

func TestRoute(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT latitude, longitude, is_mock, is_base_location, recorded_at`).
		WithArgs("session-1").
		WillReturnRows(pgxmock.NewRows([]string{"latitude", "longitude", "is_mock", "is_base_location", "recorded_at"}).
			AddRow(37.7749, -122.4194, false, false, time.Now()).
			AddRow(95.0, 200.0, true, false, time.Now()))

	svc := NewService(mock, nil, 0)
	points, err := svc.Route(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[1].Latitude != 95.0 {
		t.Fatalf("invalid fixes must stay in the route")
	}
}

func TestRouteQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT latitude, longitude, is_mock, is_base_location, recorded_at`).
		WithArgs("session-err").
		WillReturnError(errAttendance)

	svc := NewService(mock, nil, 0)
	_, err = svc.Route(context.Background(), "session-err")
	if err == nil {
		t.Fatalf("expected error")
	}
}

var errAttendance = errors.New("attendance error")
