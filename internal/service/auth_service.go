package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/certlab/certlab-backend/internal/config"
	"github.com/certlab/certlab-backend/internal/model"
)

var (
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an already known email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionInvalidated is returned when a token no longer matches the
	// stored session (logout or newer login elsewhere).
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Claims is the JWT payload carried by authenticated requests.
type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and session lifecycle. A login
// overwrites the user's Redis session entry, so at most one token per user
// is valid at a time.
type AuthService struct {
	profiles ProfileStore
	redis    *redis.Client
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(profiles ProfileStore, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *AuthService {
	return &AuthService{
		profiles: profiles,
		redis:    rdb,
		cfg:      cfg,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a new account. Unknown or empty roles default to user.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Profile, error) {
	if _, err := s.profiles.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	role := model.Role(req.Role)
	switch role {
	case model.RoleCreator, model.RoleEditor, model.RoleAdmin, model.RoleUser:
	default:
		role = model.RoleUser
	}

	p := &model.Profile{
		Email:        req.Email,
		Role:         role,
		PasswordHash: string(hash),
	}
	if req.FullName != "" {
		p.FullName = &req.FullName
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", p.Email).Str("role", string(p.Role)).Msg("Account registered")
	return p, nil
}

// Login verifies credentials and issues a signed JWT. The token id is stored
// in Redis so it can be revoked by logout.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	p, err := s.profiles.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	tokenID := uuid.New().String()
	claims := Claims{
		UserID: p.ID,
		Email:  p.Email,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	key := config.CacheKey.UserSessionKey(p.ID.String())
	if err := s.redis.Set(ctx, key, tokenID, s.cfg.JWTExpiry).Err(); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", p.Email).Msg("Login succeeded")
	return &model.LoginResponse{Token: token, Profile: *p}, nil
}

// Logout revokes the user's active session.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.redis.Del(ctx, config.CacheKey.UserSessionKey(userID.String())).Err()
}

// ValidateToken parses and verifies a JWT, then checks the token id against
// the stored session entry.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrSessionInvalidated
	}

	stored, err := s.redis.Get(ctx, config.CacheKey.UserSessionKey(claims.UserID.String())).Result()
	if err != nil || stored != claims.ID {
		return nil, ErrSessionInvalidated
	}

	return claims, nil
}

// GetProfile loads the profile behind a set of claims.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	return s.profiles.GetByID(ctx, userID)
}
