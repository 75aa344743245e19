package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

var (
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
	ttl       time.Duration
	revoker   TokenRevoker
	log       logrus.FieldLogger
}

func NewAuthService(db *gorm.DB, jwtSecret string, ttl time.Duration, revoker TokenRevoker, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		revoker:   revoker,
		log:       log,
	}
}

// Login checks the email/password pair and issues a token. Unknown email and
// wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", &apperror.AppError{Err: apperror.ErrValidation, Message: ErrInvalidCredentials.Error()}
	}
	if err != nil {
		return "", fmt.Errorf("getting user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", &apperror.AppError{Err: apperror.ErrValidation, Message: ErrInvalidCredentials.Error()}
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return "", err
	}
	s.log.WithField("user_id", user.ID).Info("user logged in")
	return token, nil
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, expiry and revocation, and that the user
// still exists.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperror.Unauthorized("invalid token")
	}

	if claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, &apperror.AppError{Err: apperror.ErrUnauthorized, Message: ErrTokenRevoked.Error()}
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", claims.UserID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking token user: %w", err)
	}
	if count == 0 {
		return nil, apperror.Unauthorized("user not found")
	}
	return claims, nil
}

// Logout revokes the token identified by claims until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}
