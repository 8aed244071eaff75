// Command opstoken creates the key pair for the ops API and signs operator tokens.
//
//	opstoken -gen-keys ./keys
//	opstoken -key ./keys/private.pem -sub alice -ttl 12h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"content-tracker/internal/model"
	"content-tracker/pkg/jwt"
)

func main() {
	genKeys := flag.String("gen-keys", "", "write a new P-256 key pair into this directory and exit")
	keyPath := flag.String("key", "", "path to the PEM private key")
	subject := flag.String("sub", "operator", "operator id placed in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := run(*genKeys, *keyPath, *subject, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(genKeys, keyPath, subject string, ttl time.Duration) error {
	if genKeys != "" {
		privatePath, publicPath, err := jwt.GenerateKeys(genKeys)
		if err != nil {
			return err
		}

		fmt.Printf("private key: %s\npublic key: %s\n", privatePath, publicPath)

		return nil
	}

	if keyPath == "" {
		return fmt.Errorf("either -gen-keys or -key is required")
	}

	privateKey, err := jwt.LoadECDSAPrivateKey(keyPath)
	if err != nil {
		return err
	}

	token, err := jwt.NewOperatorToken(privateKey, ttl, jwt.Operator{ID: subject, Role: model.RoleOperator})
	if err != nil {
		return err
	}

	fmt.Println(token)

	return nil
}
