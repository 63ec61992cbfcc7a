package keys

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Key material is read once at process start and never mutated afterwards.
// Rotation is a deployment concern: a new key means a new process generation.

// Pair holds the loaded RSA material. Private is nil for verify-only
// services; only the issuer is deployed with the private key.
type Pair struct {
	Public  *rsa.PublicKey
	Private *rsa.PrivateKey
}

// Load reads the public key and, when privateSource is non-empty, the private
// key. A source is either a PEM file path or inline PEM content.
func Load(publicSource string, privateSource string) (Pair, error) {
	publicPEM, err := readSource(publicSource)
	if err != nil {
		return Pair{}, fmt.Errorf("read public key: %w", err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return Pair{}, fmt.Errorf("parse public key: %w", err)
	}

	pair := Pair{Public: public}
	if privateSource == "" {
		return pair, nil
	}

	privatePEM, err := readSource(privateSource)
	if err != nil {
		return Pair{}, fmt.Errorf("read private key: %w", err)
	}
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return Pair{}, fmt.Errorf("parse private key: %w", err)
	}
	pair.Private = private
	return pair, nil
}

func readSource(source string) ([]byte, error) {
	if strings.Contains(source, "-----BEGIN") {
		return []byte(source), nil
	}
	return os.ReadFile(source)
}
