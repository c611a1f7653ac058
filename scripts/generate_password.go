// scripts/generate_password.go

// Command generate_password prints a bcrypt hash for seeding an account by hand.
//
//	go run scripts/generate_password.go <password>
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	passwords := auth.NewPasswordManager(cfg)
	password := os.Args[1]

	hash, err := passwords.HashPassword(password)
	if err != nil {
		logrus.Fatalf("Password rejected: %v", err)
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		logrus.Fatalf("Hash verification failed: %v", err)
	}

	fmt.Println(hash)
}
