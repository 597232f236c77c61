package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/peermart/peermart/internal/ledger"
)

// Operational tool for crediting a user's wallet directly, bypassing the
// topup endpoint. Useful for refund adjustments and for seeding test
// accounts against a real database.
func main() {
	email := flag.String("email", "", "Email of the user to credit")
	amount := flag.Int64("amount", 0, "Amount to credit, in base units")
	flag.Parse()

	if *email == "" || *amount <= 0 {
		log.Fatalf("usage: go run cmd/adminutil/credit_wallet/main.go -email user@example.com -amount 5000")
	}

	_ = godotenv.Load()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatalf("POSTGRES_DSN must be set")
	}

	ctx := context.Background()
	store, err := ledger.NewPostgresStore(ctx, dsn)
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer store.Close()

	u, err := store.UserByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("no user found with email %s: %v", *email, err)
	}

	ref := "manual:" + uuid.NewString()
	if err := store.Credit(ctx, u.ID, *amount, "manual_credit", ref); err != nil {
		log.Fatalf("failed to credit wallet: %v", err)
	}

	balance, err := store.Balance(ctx, u.ID)
	if err != nil {
		log.Fatalf("credit applied but balance read failed: %v", err)
	}

	fmt.Printf("Credited %d to %s (new balance %d, reference %s)\n", *amount, u.Email, balance, ref)
}
