package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// Claims is the decoded payload of an access token
type Claims struct {
	UserID    string
	Firstname string
	Lastname  string
	Role      models.Role
	CompanyID string
}

// TokenService issues and verifies HS256 access tokens
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service; expiry defaults to one hour
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &TokenService{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue signs a token for u, bound to the partner id its company resolved to
func (s *TokenService) Issue(u *models.User, companyID string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"userId":    u.ID,
		"firstname": u.Firstname,
		"lastname":  u.Lastname,
		"role":      string(u.Role),
		"companyId": companyID,
		"exp":       now.Add(s.expiry).Unix(),
		"iat":       now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies the signature and expiry of tokenString
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	claims := &Claims{}
	claims.UserID, _ = mc["userId"].(string)
	claims.Firstname, _ = mc["firstname"].(string)
	claims.Lastname, _ = mc["lastname"].(string)
	claims.CompanyID, _ = mc["companyId"].(string)
	if r, ok := mc["role"].(string); ok {
		claims.Role = models.Role(r)
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no userId")
	}
	return claims, nil
}

// HashPassword hashes a password with bcrypt's default cost
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash with a candidate password
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateResetCode returns a random 6-digit numeric code
func GenerateResetCode() (string, error) {
	code := ""
	for i := 0; i < 6; i++ {
		digit, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += digit.String()
	}
	return code, nil
}

// CheckResetCode validates a submitted code against the one stored on u.
// A matching code is still rejected once its expiry has passed.
func CheckResetCode(u *models.User, code string, now time.Time) error {
	if u.ResetCode == "" || u.ResetCode != code {
		return ErrInvalidResetCode
	}
	if now.UnixMilli() >= u.ResetCodeExpiration {
		return ErrResetCodeExpired
	}
	return nil
}
