package report

import (
	"context"
	"time"

	"backend-fieldtrack/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

const sessionSelect = `
	SELECT s.id, s.check_in_time, s.check_out_time, s.auto_checkout, s.distance_covered_m, s.created_at, s.updated_at,
	       p.id, p.name, p.email, p.phone,
	       l.id, l.name, l.latitude, l.longitude
	FROM attendance_sessions s
	LEFT JOIN partners p ON p.id = s.partner_id
	LEFT JOIN locations l ON l.id = s.location_id
`

// ListSessions returns sessions joined with partner and location. The
// date filter only applies when both bounds are present; a single bound
// is ignored and the full history comes back.
func (s *Service) ListSessions(ctx context.Context, start, end *time.Time) ([]Entry, error) {
	query := sessionSelect + ` ORDER BY s.created_at`
	var args []any
	if start != nil && end != nil {
		query = sessionSelect + ` WHERE s.created_at BETWEEN $1 AND $2 ORDER BY s.created_at`
		args = []any{*start, *end}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                     Entry
			pID, pName            *string
			pEmail, pPhone        *string
			lID, lName            *string
			lLatitude, lLongitude *float64
		)
		err := rows.Scan(&e.ID, &e.CheckInTime, &e.CheckOutTime, &e.AutoCheckout, &e.DistanceCoveredM,
			&e.CreatedAt, &e.UpdatedAt,
			&pID, &pName, &pEmail, &pPhone,
			&lID, &lName, &lLatitude, &lLongitude)
		if err != nil {
			return nil, err
		}
		if pID != nil {
			e.Partner = &Partner{ID: *pID, Name: *pName, Email: *pEmail, Phone: *pPhone}
		}
		if lID != nil {
			e.Location = &Location{ID: *lID, Name: *lName, Latitude: *lLatitude, Longitude: *lLongitude}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
