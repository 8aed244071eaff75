package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

const (
	PrivateKeyFile = "ecdsa_private.pem"
	PublicKeyFile  = "ecdsa_public.pem"
)

// GenerateKeys writes a fresh P-256 key pair into dir and returns both paths.
func GenerateKeys(dir string) (privatePath, publicPath string, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate private key: %w", err)
	}

	privateBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to convert EC private key to SEC 1: %w", err)
	}

	publicBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to convert public key to PKIX: %w", err)
	}

	privatePath = filepath.Join(dir, PrivateKeyFile)
	publicPath = filepath.Join(dir, PublicKeyFile)

	if err := writePEM(privatePath, "EC PRIVATE KEY", privateBytes, 0o600); err != nil {
		return "", "", err
	}

	if err := writePEM(publicPath, "PUBLIC KEY", publicBytes, 0o644); err != nil {
		return "", "", err
	}

	return privatePath, publicPath, nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func() {
		if cErr := f.Close(); cErr != nil {
			err = fmt.Errorf("%w, failed to close %s: %w", err, path, cErr)
		}
	}()

	if err = pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
