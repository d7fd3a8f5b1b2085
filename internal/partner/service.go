package partner

import (
	"context"
	"errors"
	"fmt"

	"backend-fieldtrack/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAlreadyExists   = errors.New("partner already exists")
	ErrInvalidLocation = errors.New("invalid location")
	ErrNotFound        = errors.New("partner not found")
)

var hashPasswordFn = bcrypt.GenerateFromPassword

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

const partnerColumns = `id, name, login_id, email, phone, state, city, password_hash, is_deleted, is_active, location_id, created_at, updated_at`

func (s *Service) Create(ctx context.Context, input Partner, password string) (Partner, error) {
	var locationDeleted bool
	err := s.db.QueryRow(ctx, `SELECT is_deleted FROM locations WHERE id=$1`, input.LocationID).Scan(&locationDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Partner{}, fmt.Errorf("%w: location %s not found", ErrInvalidLocation, input.LocationID)
	}
	if err != nil {
		return Partner{}, err
	}
	if locationDeleted {
		return Partner{}, fmt.Errorf("%w: location %s is deleted", ErrInvalidLocation, input.LocationID)
	}

	var exists bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM partners WHERE email=$1 AND phone=$2 AND login_id=$3)
	`, input.Email, input.Phone, input.LoginID).Scan(&exists)
	if err != nil {
		return Partner{}, err
	}
	if exists {
		return Partner{}, ErrAlreadyExists
	}

	hash, err := hashPasswordFn([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Partner{}, err
	}

	input.ID = uuid.NewString()
	input.PasswordHash = string(hash)
	row := s.db.QueryRow(ctx, `
		INSERT INTO partners (id, name, login_id, email, phone, state, city, password_hash, is_active, location_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at
	`, input.ID, input.Name, input.LoginID, input.Email, input.Phone, input.State, input.City, input.PasswordHash, input.IsActive, input.LocationID)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Partner{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Partner, error) {
	row := s.db.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id=$1`, id)
	p, err := scanPartner(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Partner{}, ErrNotFound
	}
	return p, err
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (Partner, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Partner{}, err
	}
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.LoginID != "" {
		p.LoginID = patch.LoginID
	}
	if patch.Email != "" {
		p.Email = patch.Email
	}
	if patch.Phone != "" {
		p.Phone = patch.Phone
	}
	if patch.State != "" {
		p.State = patch.State
	}
	if patch.City != "" {
		p.City = patch.City
	}
	if patch.LocationID != "" {
		p.LocationID = patch.LocationID
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.IsDeleted != nil {
		p.IsDeleted = *patch.IsDeleted
	}
	if patch.Password != "" {
		hash, err := hashPasswordFn([]byte(patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return Partner{}, err
		}
		p.PasswordHash = string(hash)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE partners
		SET name=$2, login_id=$3, email=$4, phone=$5, state=$6, city=$7, password_hash=$8, is_deleted=$9, is_active=$10, location_id=$11, updated_at=now()
		WHERE id=$1
	`, p.ID, p.Name, p.LoginID, p.Email, p.Phone, p.State, p.City, p.PasswordHash, p.IsDeleted, p.IsActive, p.LocationID)
	if err != nil {
		return Partner{}, err
	}
	return p, nil
}

// ByLocation lists the active partners assigned to a location.
func (s *Service) ByLocation(ctx context.Context, locationID string) ([]Partner, error) {
	return s.list(ctx, `SELECT `+partnerColumns+` FROM partners WHERE location_id=$1 AND is_active=true ORDER BY name`, locationID)
}

func (s *Service) Active(ctx context.Context) ([]Partner, error) {
	return s.list(ctx, `SELECT `+partnerColumns+` FROM partners WHERE is_active=true ORDER BY name`)
}

// Applicants lists partners that signed up but are not yet activated.
func (s *Service) Applicants(ctx context.Context) ([]Partner, error) {
	return s.list(ctx, `SELECT `+partnerColumns+` FROM partners WHERE is_active=false ORDER BY name`)
}

func (s *Service) list(ctx context.Context, query string, args ...any) ([]Partner, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, nil
}

func scanPartner(row pgx.Row) (Partner, error) {
	var p Partner
	err := row.Scan(&p.ID, &p.Name, &p.LoginID, &p.Email, &p.Phone, &p.State, &p.City,
		&p.PasswordHash, &p.IsDeleted, &p.IsActive, &p.LocationID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
