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
	"time"

	"expense-api/internal/backend"
	"expense-api/internal/config"
	"expense-api/internal/service"
	"expense-api/internal/storage"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address used to log in")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "", "Path to the SQLite database file (default $DB_PATH or expenses.db)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var missing []string
	if *username == "" {
		missing = append(missing, "user")
	}
	if *email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> -email <email> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	// The same settings the server reads, so the account lands in the
	// store the server uses.
	storeCfg, err := config.LoadStore()
	if err != nil {
		return fmt.Errorf("failed to load store settings: %w", err)
	}
	if *dbPath != "" {
		if storeCfg.StoreDriver != config.DriverSQLite {
			return fmt.Errorf("-db applies to the %s driver only, STORE_DRIVER is %s", config.DriverSQLite, storeCfg.StoreDriver)
		}
		storeCfg.DBPath = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := backend.Open(ctx, storeCfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if _, err := store.GetUserByUsername(ctx, *username); err == nil {
		return fmt.Errorf("user %s already exists", *username)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	user, err := service.NewAccounts(store).Register(ctx, *username, *email, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	total, err := store.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s (%d users total)\n", user.Username, user.ID, total)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
