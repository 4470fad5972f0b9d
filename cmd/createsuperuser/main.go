// Command createsuperuser creates an active, verified staff account.
//
// Usage:
//
//	createsuperuser -email admin@example.com -first-name Ada -last-name Lovelace
//
// The password is read from the terminal without echo, or from stdin when
// stdin is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/taekwondodev/go-account-service/internal/auth/credentials"
	"github.com/taekwondodev/go-account-service/internal/auth/repository"
	"github.com/taekwondodev/go-account-service/internal/config"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/logging"
	"github.com/taekwondodev/go-account-service/internal/migrations"
)

func main() {
	email := flag.String("email", "", "email address of the new superuser")
	firstName := flag.String("first-name", "", "first name")
	lastName := flag.String("last-name", "", "last name")
	flag.Parse()

	if err := run(context.Background(), *email, *firstName, *lastName); err != nil {
		fmt.Fprintln(os.Stderr, "createsuperuser:", err)
		var verr *customerrors.ValidationError
		if errors.As(err, &verr) {
			for field, msgs := range verr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, strings.Join(msgs, " "))
			}
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, email, firstName, lastName string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.LogLevel)

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	db, err := config.OpenDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := migrations.Up(ctx, db, config.MigrationDialect(cfg.Database.Driver)); err != nil {
		return err
	}

	hasher, err := config.NewHasher(cfg.Password)
	if err != nil {
		return err
	}
	store, err := credentials.NewCredentialStore(
		repository.NewUserRepository(db, repository.DialectFor(cfg.Database.Driver)),
		hasher,
		credentials.WithLogger(log),
		credentials.WithMinPasswordLength(cfg.Password.MinLength),
	)
	if err != nil {
		return err
	}

	user, err := store.CreateSuperuser(ctx, credentials.NewUser{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  password,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Superuser %s <%s> created with id %s\n", user.FullName(), user.Email, user.ID)
	return nil
}

func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(prompt, "Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
