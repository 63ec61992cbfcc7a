package application

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainerrors "gatekeeper/contexts/identity-access/token-service/domain/errors"
	"gatekeeper/contexts/identity-access/token-service/ports"
)

// Codec signs and verifies identity tokens with a process-wide RSA key pair.
// Verification is stateless and local: every service authenticates callers
// without a round trip to the issuer, which is the trust boundary that lets
// services scale independently. Key material is loaded once at startup and
// immutable for the process lifetime, so Issue and Verify are safe for
// unbounded concurrent use with no locking.
type Codec struct {
	issuer   string
	audience string
	private  *rsa.PrivateKey
	public   *rsa.PublicKey
	clock    ports.Clock
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// signedClaims is the JWT claim set on the wire:
// sub, iss, aud, iat, exp, roles, type.
type signedClaims struct {
	jwt.RegisteredClaims
	Roles     []string `json:"roles"`
	TokenType string   `json:"type"`
}

// NewCodec builds a codec. Verify-only services pass a nil private key; Issue
// then fails with ErrKeySigning.
func NewCodec(issuer string, audience string, public *rsa.PublicKey, private *rsa.PrivateKey, clock ports.Clock) (*Codec, error) {
	if issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	if audience == "" {
		return nil, errors.New("token audience is required")
	}
	if public == nil {
		return nil, errors.New("token public key is required")
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Codec{
		issuer:   issuer,
		audience: audience,
		private:  private,
		public:   public,
		clock:    clock,
	}, nil
}

// Issue signs a token for subject with the given roles, type, and ttl.
func (c *Codec) Issue(subject string, roles []string, tokenType string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", domainerrors.ErrInvalidSubject
	}
	if !ports.IsValidTokenType(tokenType) {
		return "", domainerrors.ErrInvalidTokenType
	}
	if ttl <= 0 {
		return "", domainerrors.ErrInvalidTTL
	}
	if c.private == nil {
		return "", domainerrors.ErrKeySigning
	}

	now := c.clock.Now()
	claims := signedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles:     roles,
		TokenType: tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.private)
	if err != nil {
		return "", errors.Join(domainerrors.ErrKeySigning, err)
	}
	return signed, nil
}

// Verify parses and validates a signed token, returning its claims. Failure
// is exactly one of the domain error kinds. No I/O happens here: the work is
// bounded CPU, completing or failing synchronously.
func (c *Codec) Verify(token string) (ports.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
	)

	var claims signedClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.public, nil
	})
	if err != nil {
		return ports.Claims{}, classifyVerifyError(err)
	}
	if !parsed.Valid {
		return ports.Claims{}, domainerrors.ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return ports.Claims{}, domainerrors.ErrMalformedToken
	}
	if !ports.IsValidTokenType(claims.TokenType) {
		return ports.Claims{}, domainerrors.ErrMalformedToken
	}

	out := ports.Claims{
		Subject:   claims.Subject,
		Issuer:    claims.Issuer,
		Roles:     claims.Roles,
		TokenType: claims.TokenType,
	}
	if len(claims.Audience) > 0 {
		out.Audience = claims.Audience[0]
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// classifyVerifyError collapses the jwt library's joined errors into a single
// domain kind. Order matters: a structurally broken token is malformed before
// anything else, a bad signature makes claim checks meaningless, and expiry
// outranks issuer/audience so an expired token reports expiry and nothing
// else.
func classifyVerifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domainerrors.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domainerrors.ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainerrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return domainerrors.ErrIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return domainerrors.ErrAudienceMismatch
	default:
		return domainerrors.ErrMalformedToken
	}
}
