package jwt

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

const (
	ErrInvalidSigningMethod = errors.ConstError("unexpected signing method")
	ErrInvalidToken         = errors.ConstError("invalid token")
	ErrWrongTokenType       = errors.ConstError("wrong token type")
)

type TokenService struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	keyID         string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	issuer        string
	now           func() time.Time
}

func NewTokenService(privateKeyPEM, publicKeyPEM []byte, accessExpiry, refreshExpiry time.Duration, issuer string) (*TokenService, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, errors.Annotate(err, "parsing private key")
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, errors.Annotate(err, "parsing public key")
	}

	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, errors.Annotate(err, "encoding public key")
	}
	thumbprint := sha256.Sum256(der)

	return &TokenService{
		privateKey:    privateKey,
		publicKey:     publicKey,
		keyID:         base64.RawURLEncoding.EncodeToString(thumbprint[:12]),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		issuer:        issuer,
		now:           time.Now,
	}, nil
}

// RefreshExpiry is the lifetime of refresh tokens, used for session rows
func (s *TokenService) RefreshExpiry() time.Duration {
	return s.refreshExpiry
}

// PublicKey is the key tokens are verified with
func (s *TokenService) PublicKey() *rsa.PublicKey {
	return s.publicKey
}

// KeyID identifies the signing key in the kid header, derived from the public
// key so it changes on rotation
func (s *TokenService) KeyID() string {
	return s.keyID
}

func (s *TokenService) sign(claims domain.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID
	return token.SignedString(s.privateKey)
}

// GenerateTokenPair issues an access token carrying role and tenant claims and
// a refresh token bound to sessionID.
func (s *TokenService) GenerateTokenPair(user *domain.User, sessionID uuid.UUID) (*domain.TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.accessExpiry)

	accessClaims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(accessExp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TenantID:  user.TenantID,
		SessionID: &sessionID,
		TokenType: domain.TokenTypeAccess,
	}

	accessToken, err := s.sign(accessClaims)
	if err != nil {
		return nil, errors.Annotate(err, "signing access token")
	}

	// Refresh token with fewer claims
	refreshClaims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:    user.ID,
		TenantID:  user.TenantID,
		SessionID: &sessionID,
		TokenType: domain.TokenTypeRefresh,
	}

	refreshToken, err := s.sign(refreshClaims)
	if err != nil {
		return nil, errors.Annotate(err, "signing refresh token")
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		TokenType:    "Bearer",
	}, nil
}

func (s *TokenService) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.publicKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateAccessToken validates tokenString and requires an access token
func (s *TokenService) ValidateAccessToken(tokenString string) (*domain.Claims, error) {
	return s.validateType(tokenString, domain.TokenTypeAccess)
}

// ValidateRefreshToken validates tokenString and requires a refresh token
func (s *TokenService) ValidateRefreshToken(tokenString string) (*domain.Claims, error) {
	return s.validateType(tokenString, domain.TokenTypeRefresh)
}

func (s *TokenService) validateType(tokenString, tokenType string) (*domain.Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
