package auth

import (
	"context"
	"errors"
	"time"

	"backend-fieldtrack/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

var (
	signTokenFn       = (*Service).signToken
	parseWithClaimsFn = jwt.ParseWithClaims
)

type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	PartnerID string `json:"partner_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

// Login authenticates a partner by login id. Inactive and soft-deleted
// partners fail the same way as a wrong password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Account, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, login_id, email, phone, state, city, password_hash, location_id, created_at, updated_at
		FROM partners WHERE login_id=$1 AND is_active=true AND is_deleted=false
	`, req.LoginID)

	var account Account
	var hash string
	err := row.Scan(&account.ID, &account.Name, &account.LoginID, &account.Email, &account.Phone,
		&account.State, &account.City, &hash, &account.LocationID, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, TokenResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return Account{}, TokenResponse{}, ErrInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, account.ID)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}
	return account, tokens, nil
}

func (s *Service) GenerateTokens(ctx context.Context, partnerID string) (TokenResponse, error) {
	access, err := signTokenFn(s, partnerID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := signTokenFn(s, partnerID, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, partnerID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}

	partnerID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || partnerID != claims.PartnerID || time.Now().After(expiresAt) {
		return "", errors.New("refresh token invalid")
	}
	return claims.PartnerID, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.PartnerID, nil
}

func (s *Service) signToken(partnerID string, ttl time.Duration) (string, error) {
	claims := Claims{
		PartnerID: partnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, partnerID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, partner_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), partnerID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT partner_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var partnerID string
	var expiresAt time.Time
	if err := row.Scan(&partnerID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return partnerID, expiresAt, nil
}
