package location

import (
	"context"
	"encoding/json"
	"errors"

	"backend-fieldtrack/internal/db"
	"backend-fieldtrack/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrAlreadyExists = errors.New("location already exists")
	ErrNotFound      = errors.New("location not found")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Create rejects a location that duplicates an existing one's name and
// coordinates all at once; a shared name alone is fine.
func (s *Service) Create(ctx context.Context, input Location) (Location, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE name=$1 AND latitude=$2 AND longitude=$3)
	`, input.Name, input.Latitude, input.Longitude).Scan(&exists)
	if err != nil {
		return Location{}, err
	}
	if exists {
		return Location{}, ErrAlreadyExists
	}

	if input.Boundary == nil {
		input.Boundary = []geo.Coordinate{}
	}
	boundary, err := json.Marshal(input.Boundary)
	if err != nil {
		return Location{}, err
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO locations (id, name, latitude, longitude, radius_m, boundary)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at
	`, input.ID, input.Name, input.Latitude, input.Longitude, input.RadiusM, boundary)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Location{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Location, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, latitude, longitude, radius_m, boundary, is_deleted, created_at, updated_at
		FROM locations WHERE id=$1
	`, id)
	loc, err := scanLocation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	return loc, err
}

func (s *Service) Update(ctx context.Context, id string, patch Location) (Location, error) {
	loc, err := s.Get(ctx, id)
	if err != nil {
		return Location{}, err
	}
	if patch.Name != "" {
		loc.Name = patch.Name
	}
	if patch.Latitude != 0 {
		loc.Latitude = patch.Latitude
	}
	if patch.Longitude != 0 {
		loc.Longitude = patch.Longitude
	}
	if patch.RadiusM != 0 {
		loc.RadiusM = patch.RadiusM
	}
	if patch.Boundary != nil {
		loc.Boundary = patch.Boundary
	}

	var exists bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE name=$1 AND latitude=$2 AND longitude=$3 AND id<>$4)
	`, loc.Name, loc.Latitude, loc.Longitude, loc.ID).Scan(&exists)
	if err != nil {
		return Location{}, err
	}
	if exists {
		return Location{}, ErrAlreadyExists
	}

	boundary, err := json.Marshal(loc.Boundary)
	if err != nil {
		return Location{}, err
	}
	_, err = s.db.Exec(ctx, `
		UPDATE locations
		SET name=$2, latitude=$3, longitude=$4, radius_m=$5, boundary=$6, updated_at=now()
		WHERE id=$1
	`, loc.ID, loc.Name, loc.Latitude, loc.Longitude, loc.RadiusM, boundary)
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

// List returns every location, soft-deleted ones included.
func (s *Service) List(ctx context.Context) ([]Location, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, latitude, longitude, radius_m, boundary, is_deleted, created_at, updated_at
		FROM locations
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// SoftDelete keeps the row around so old attendance sessions can still
// resolve their location.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE locations SET is_deleted=true, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PartnerCounts lists each live location with its active partners. The
// join is assembled in code so a location with no partners still shows
// up with an empty list.
func (s *Service) PartnerCounts(ctx context.Context) ([]PartnerCount, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.id, l.name, l.latitude, l.longitude, p.id, p.name, p.email
		FROM locations l
		LEFT JOIN partners p ON p.location_id = l.id AND p.is_active = true AND p.is_deleted = false
		WHERE l.is_deleted = false
		ORDER BY l.name, p.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []PartnerCount
	index := map[string]int{}
	for rows.Next() {
		var (
			locID, locName     string
			lat, lng           float64
			pID, pName, pEmail *string
		)
		if err := rows.Scan(&locID, &locName, &lat, &lng, &pID, &pName, &pEmail); err != nil {
			return nil, err
		}

		i, ok := index[locID]
		if !ok {
			i = len(counts)
			index[locID] = i
			counts = append(counts, PartnerCount{
				LocationID: locID,
				Name:       locName,
				Latitude:   lat,
				Longitude:  lng,
				Partners:   []PartnerSummary{},
			})
		}
		if pID != nil {
			counts[i].Partners = append(counts[i].Partners, PartnerSummary{ID: *pID, Name: *pName, Email: *pEmail})
			counts[i].PartnerCount++
		}
	}
	return counts, nil
}

func scanLocation(row pgx.Row) (Location, error) {
	var (
		loc      Location
		boundary []byte
	)
	err := row.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.RadiusM, &boundary,
		&loc.IsDeleted, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return Location{}, err
	}
	loc.Boundary = []geo.Coordinate{}
	if len(boundary) > 0 {
		if err := json.Unmarshal(boundary, &loc.Boundary); err != nil {
			return Location{}, err
		}
	}
	return loc, nil
}
