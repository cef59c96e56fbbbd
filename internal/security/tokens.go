package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, badly signed, or minted for another purpose.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a well-formed token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Purpose separates session tokens from invitation tokens so one cannot stand in for the other.
type Purpose string

const (
	PurposeSession    Purpose = "session"
	PurposeInvitation Purpose = "invitation"
)

// Claims is the signed payload. Exactly one of Email/Phone is the channel value the token was minted for.
type Claims struct {
	jwt.RegisteredClaims
	UID     string  `json:"uid"`
	Role    string  `json:"role"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Purpose Purpose `json:"purpose"`
}

// TokenCodec signs and verifies self-contained JWTs. HS256 with a shared secret, or RS256/ES256 with a key pair.
type TokenCodec struct {
	method     jwt.SigningMethod
	signKey    interface{}
	verifyKey  interface{}
	issuer     string
	defaultTTL time.Duration
	nowF       func() time.Time
}

// NewHMACCodec returns a codec signing with HS256 and secret.
func NewHMACCodec(secret []byte, issuer string, defaultTTL time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidKey
	}
	return newCodec(jwt.SigningMethodHS256, secret, secret, issuer, defaultTTL), nil
}

// NewKeyPairCodec returns a codec signing with privateKey (RS256 for RSA, ES256 for ECDSA) and verifying with publicKey.
func NewKeyPairCodec(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer string, defaultTTL time.Duration) (*TokenCodec, error) {
	var method jwt.SigningMethod
	switch privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return nil, ErrInvalidKey
	}
	if KeyAlg(publicKey) != method.Alg() {
		return nil, ErrInvalidKey
	}
	return newCodec(method, privateKey, publicKey, issuer, defaultTTL), nil
}

func newCodec(method jwt.SigningMethod, signKey, verifyKey interface{}, issuer string, defaultTTL time.Duration) *TokenCodec {
	if defaultTTL <= 0 {
		defaultTTL = 72 * time.Hour
	}
	return &TokenCodec{
		method:     method,
		signKey:    signKey,
		verifyKey:  verifyKey,
		issuer:     issuer,
		defaultTTL: defaultTTL,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// Sign mints a token carrying claims that expires after ttl (the codec default when ttl <= 0).
// Registered claims (iss, iat, exp, jti) are set by the codec.
func (c *TokenCodec) Sign(claims Claims, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := c.nowF()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti,
		Subject:   claims.UID,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks signature, issuer, expiry and purpose. Returns ErrTokenExpired or ErrInvalidToken on failure.
func (c *TokenCodec) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.verifyKey, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowF),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Purpose != purpose || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetClock overrides the codec's time source. Tests use it to move past expiry.
func (c *TokenCodec) SetClock(now func() time.Time) {
	c.nowF = now
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
