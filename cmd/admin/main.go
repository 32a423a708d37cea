package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/lost-found/internal/config"
	"github.com/dom/lost-found/internal/repository"
	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/storage"
	"golang.org/x/term"
)

// Test seams.
var (
	readPassword = term.ReadPassword
	openRepos    = func(ctx context.Context, cfg *config.Config) (*repository.Repositories, func(context.Context) error, error) {
		st, err := storage.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return st.Repos, st.Close, nil
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Notice Board Admin - account maintenance against the configured database

USAGE:
  admin <command> [options]

COMMANDS:
  create-user   Create an account; the password is read from the terminal
  revoke-token  Log a user out by clearing their bearer token
  help          Show this help message

EXAMPLES:
  admin create-user --email=staff@example.com --username=staff --nickname="Front desk"
  admin revoke-token --email=staff@example.com`)
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return errors.New("missing command")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	case "create-user", "revoke-token":
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	repos, closeRepos, err := openRepos(connectCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := closeRepos(context.Background()); err != nil {
			log.Printf("ERROR [admin] failed to close database: %v", err)
		}
	}()

	services := service.NewServices(repos, cfg, nil)

	if command == "create-user" {
		return createUserCmd(ctx, services, rest, out)
	}
	return revokeTokenCmd(ctx, services, rest, out)
}

func createUserCmd(ctx context.Context, services *service.Services, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "Email address (required)")
	username := fs.String("username", "", "Username (required)")
	nickname := fs.String("nickname", "", "Display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := promptPassword(out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(out, "Confirm password: ")
	if err != nil {
		return err
	}

	result, err := services.Auth.Register(ctx, service.RegisterInput{
		Username:        *username,
		Nickname:        *nickname,
		Email:           *email,
		Password:        password,
		PasswordConfirm: confirm,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			for _, field := range verr.FieldNames() {
				fmt.Fprintf(out, "  %s: %s\n", field, verr.Fields[field])
			}
		}
		return err
	}

	// Registration signs the user in; the operator never sees that token.
	if err := services.Tokens.Revoke(ctx, result.User); err != nil {
		return fmt.Errorf("clear registration token: %w", err)
	}

	fmt.Fprintf(out, "Created user %s (%s)\n", result.User.Username, result.User.ID)
	return nil
}

func revokeTokenCmd(ctx context.Context, services *service.Services, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("revoke-token", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "Email address of the user (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}

	user, found, err := services.Credentials.FindByEmail(ctx, *email)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no user with email %s", service.NormalizeEmail(*email))
	}

	if err := services.Tokens.Revoke(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(out, "Revoked token for %s\n", user.Username)
	return nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
