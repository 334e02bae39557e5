// Command admin creates accounts from the terminal, for bootstrapping an
// installation or operator use. The password is read without echo.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/lodeworks/quarry/internal/flagx"
	"github.com/lodeworks/quarry/internal/logging"
	"github.com/lodeworks/quarry/internal/server/config"
	"github.com/lodeworks/quarry/internal/server/repositories/repomanager"
	"github.com/lodeworks/quarry/internal/server/security"
	"github.com/lodeworks/quarry/internal/server/services"
)

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func main() {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	name := fs.String("name", "", "account name")
	email := fs.String("email", "", "account email")
	fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-name", "-email"}))

	if *name == "" || *email == "" {
		fs.Usage()
		os.Exit(2)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		log.Fatalf("reading password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		log.Fatalf("reading password: %v", err)
	}
	if password != confirm {
		log.Fatal("passwords do not match")
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	codes := services.NewVerificationService(db, rm)
	accounts := services.NewAccountService(db, rm, security.NewArgonHasher(), codes, nil, cfg, logger)

	account, err := accounts.Register(ctx, *name, *email, password)
	if err != nil {
		log.Fatalf("creating account: %v", err)
	}
	fmt.Printf("created account %s (%s)\n", account.Name, account.ID)
}
