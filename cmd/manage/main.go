package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"users-service/confs"
	"users-service/db"
	"users-service/repositories"
	"users-service/usecases"
)

const (
	coverProfile = "coverage.out"
	coverHTMLDir = "htmlcov"
)

var errUnknownCommand = errors.New("unknown command")

// goTool runs the go command with the process stdio; replaced in tests.
var goTool = func(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// openDatabase is replaced in tests.
var openDatabase = func(settings string) (db.Database, error) {
	if settings != "" {
		if err := os.Setenv("APP_SETTINGS", settings); err != nil {
			return nil, fmt.Errorf("failed to apply settings %q: %w", settings, err)
		}
	}
	cfg, err := confs.LoadConfig()
	if err != nil {
		return nil, err
	}
	return db.Connect(cfg)
}

// migrate is replaced in tests.
var migrate = db.Migrate

type command struct {
	usage string
	run   func(ctx context.Context, settings string, out io.Writer) error
}

var commands = map[string]command{
	"recreate_db": {"drop and recreate the users table", recreateDB},
	"seed_db":     {"insert the sample users", seedDB},
	"test":        {"run the test suite", runTests},
	"cov":         {"run the test suite with coverage", runCoverage},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("manage", flag.ContinueOnError)
	fs.SetOutput(out)
	settings := fs.String("settings", "", "configuration profile, overrides APP_SETTINGS")
	fs.Usage = func() {
		fmt.Fprintln(out, "usage: manage [-settings profile] <command>")
		for _, name := range []string{"recreate_db", "seed_db", "test", "cov"} {
			fmt.Fprintf(out, "  %-12s %s\n", name, commands[name].usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(out, "%v: %s\n", errUnknownCommand, fs.Arg(0))
		fs.Usage()
		return 1
	}
	if err := cmd.run(ctx, *settings, out); err != nil {
		fmt.Fprintf(out, "%s failed: %v\n", fs.Arg(0), err)
		return 1
	}
	return 0
}

func recreateDB(ctx context.Context, settings string, out io.Writer) error {
	database, err := openDatabase(settings)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Recreate(ctx, database); err != nil {
		return err
	}
	fmt.Fprintln(out, "Database recreated")
	return nil
}

func seedDB(ctx context.Context, settings string, out io.Writer) error {
	database, err := openDatabase(settings)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrate(ctx, database); err != nil {
		return err
	}

	uc := usecases.NewUsersUseCase(repositories.NewUserPgRepository(database), nil)
	users, err := uc.Seed(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Fprintf(out, "Seeded user %d: %s <%s>\n", u.ID, u.Username, u.Email)
	}
	return nil
}

func runTests(ctx context.Context, _ string, _ io.Writer) error {
	return goTool(ctx, "test", "-v", "./...")
}

func runCoverage(ctx context.Context, _ string, out io.Writer) error {
	if err := goTool(ctx, "test", "-covermode=atomic", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	fmt.Fprintln(out, "Coverage Summary:")
	if err := goTool(ctx, "tool", "cover", "-func="+coverProfile); err != nil {
		return err
	}
	if err := os.MkdirAll(coverHTMLDir, 0o755); err != nil {
		return err
	}
	report := filepath.Join(coverHTMLDir, "index.html")
	if err := goTool(ctx, "tool", "cover", "-html="+coverProfile, "-o", report); err != nil {
		return err
	}
	abs, err := filepath.Abs(report)
	if err != nil {
		abs = report
	}
	log.Printf("HTML version: file://%s", abs)
	return nil
}
