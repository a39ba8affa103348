// Command devtoken prints a signed access token for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/auth"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	sub := flag.String("sub", "", "identity to put in the sub claim (required)")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		flag.Usage()
		os.Exit(2)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	token, err := auth.NewIssuer(secret, *ttl).Issue(*sub, *email)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
