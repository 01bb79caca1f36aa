package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/opticlinic/clinic-flow/internal/audit"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
)

type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// User is a staff login account. StaffID links the account to the staff
// registry entry, if one exists.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	StaffID      string    `json:"staff_id,omitempty"`
	LastLogin    time.Time `json:"last_login"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Status       string    `json:"status"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type Service interface {
	Register(ctx context.Context, username, email, password string, roles []string, staffID string) (*User, error)
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
	RefreshToken(ctx context.Context, tokenString string) (string, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	DeactivateUser(ctx context.Context, userID string) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	Initialize(ctx context.Context) error
}

type service struct {
	db           *pgxpool.Pool
	audit        audit.Service
	jwtSecret    []byte
	tokenExpiry  time.Duration
	refreshLimit time.Duration
}

type Config struct {
	JWTSecret    string
	TokenExpiry  time.Duration
	RefreshLimit time.Duration
}

func NewService(db *pgxpool.Pool, auditSvc audit.Service, cfg Config) Service {
	if cfg.TokenExpiry == 0 {
		cfg.TokenExpiry = 8 * time.Hour
	}
	if cfg.RefreshLimit == 0 {
		cfg.RefreshLimit = time.Hour
	}
	return &service{
		db:           db,
		audit:        auditSvc,
		jwtSecret:    []byte(cfg.JWTSecret),
		tokenExpiry:  cfg.TokenExpiry,
		refreshLimit: cfg.RefreshLimit,
	}
}

// Initialize creates the users table.
func (s *service) Initialize(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		roles TEXT[] NOT NULL DEFAULT '{}',
		staff_id VARCHAR(255),
		last_login TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		status VARCHAR(50) NOT NULL DEFAULT 'active'
	);
	CREATE INDEX IF NOT EXISTS users_email_idx ON users(email);
	`
	_, err := s.db.Exec(ctx, createTableSQL)
	return err
}

func (s *service) Register(ctx context.Context, username, email, password string, roles []string, staffID string) (*User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Roles:        roles,
		StaffID:      staffID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       "active",
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, roles, staff_id, created_at, updated_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Username, user.Email, user.PasswordHash, pq.Array(user.Roles),
		user.StaffID, user.CreatedAt, user.UpdatedAt, user.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     user.ID,
		Action:     "REGISTER",
		Resource:   "user",
		ResourceID: user.ID,
		Status:     "success",
	})

	return user, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var user User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, roles, COALESCE(staff_id, ''), status
		 FROM users WHERE username = $1 OR email = $1`,
		username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		pq.Array(&user.Roles), &user.StaffID, &user.Status)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status != "active" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit.LogEvent(ctx, &audit.Event{
			EventType: audit.EventAccess,
			Action:    "LOGIN",
			Resource:  "user",
			Status:    "failure",
		})
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(ctx,
		"UPDATE users SET last_login = $1 WHERE id = $2",
		time.Now().UTC(), user.ID); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventAccess,
		UserID:     user.ID,
		Action:     "LOGIN",
		Resource:   "user",
		ResourceID: user.ID,
		Status:     "success",
	})

	user.PasswordHash = ""
	return &LoginResponse{Token: token, User: &user}, nil
}

func (s *service) generateToken(user *User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
			Subject:   user.ID,
		},
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// The account may have been deactivated since the token was issued.
	var status string
	err = s.db.QueryRow(ctx,
		`SELECT status FROM users WHERE id = $1`,
		claims.UserID).Scan(&status)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if status != "active" {
		return nil, ErrUserNotFound
	}

	return claims, nil
}

func (s *service) RefreshToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return "", err
	}

	if time.Until(claims.ExpiresAt.Time) > s.refreshLimit {
		return "", ErrTokenExpired
	}

	newClaims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
			Subject:   claims.UserID,
		},
		UserID:   claims.UserID,
		Username: claims.Username,
		Roles:    claims.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims)
	return token.SignedString(s.jwtSecret)
}

func (s *service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	var passwordHash string
	err := s.db.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE id = $1`,
		userID).Scan(&passwordHash)
	if err != nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(oldPassword)); err != nil {
		s.audit.LogEvent(ctx, &audit.Event{
			EventType:  audit.EventModify,
			UserID:     userID,
			Action:     "CHANGE_PASSWORD",
			Resource:   "user",
			ResourceID: userID,
			Status:     "failure",
		})
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		string(hash), userID); err != nil {
		return err
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     userID,
		Action:     "CHANGE_PASSWORD",
		Resource:   "user",
		ResourceID: userID,
		Status:     "success",
	})

	return nil
}

func (s *service) DeactivateUser(ctx context.Context, userID string) error {
	res, err := s.db.Exec(ctx,
		`UPDATE users SET status = 'inactive', updated_at = NOW() WHERE id = $1`,
		userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventModify,
		UserID:     userID,
		Action:     "DEACTIVATE",
		Resource:   "user",
		ResourceID: userID,
		Status:     "success",
	})

	return nil
}

func (s *service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	var user User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, roles, COALESCE(staff_id, ''), COALESCE(last_login, 'epoch'), created_at, updated_at, status
		 FROM users WHERE id = $1`,
		userID).Scan(
		&user.ID, &user.Username, &user.Email, pq.Array(&user.Roles),
		&user.StaffID, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt, &user.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, email, roles, COALESCE(staff_id, ''), COALESCE(last_login, 'epoch'), created_at, updated_at, status
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, pq.Array(&user.Roles),
			&user.StaffID, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt, &user.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
