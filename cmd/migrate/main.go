package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/migrate"
	"github.com/angelmondragon/relacksation-backend/pkg/security"
)

const usage = "up|down|status|version|create|validate|hash-password"

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "command: "+usage)
	dir := flag.String("dir", "", "migrations directory on disk (default: migrations embedded in the binary)")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	if err := run(*cmd, *dir, *name, *version, logg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd, dir, name, version string, logg *logger.Logger) error {
	// Offline commands run without a database or full config.
	switch cmd {
	case "create":
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(dir, name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		versions, err := migrate.Validate(migrate.Source(dir))
		if err != nil {
			return err
		}
		fmt.Printf("%d migrations valid\n", len(versions))
		return nil
	case "hash-password":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return hashPassword(os.Stdin, os.Stdout, cfg.Password)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, migrate.Source(dir))
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		applied, err := runner.Up(ctx)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "applied", applied), "migrations applied")
	case "down":
		if err := runner.Down(ctx); err != nil {
			return err
		}
		logg.Info(ctx, "rolled back latest migration")
	case "status":
		rows, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(os.Stdout, rows)
	case "version":
		target, err := migrate.ParseVersion(version)
		if err != nil {
			return err
		}
		if err := runner.To(ctx, target); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "version", target), "database at target version")
	default:
		return fmt.Errorf("unknown command (want %s)", usage)
	}
	return nil
}

// hashPassword reads one line and prints the Argon2id hash to paste into
// RELACKS_ADMIN_PASSWORD_HASH.
func hashPassword(in io.Reader, out io.Writer, cfg config.PasswordConfig) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	hash, err := security.HashPassword(strings.TrimRight(line, "\r\n"), cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

func printStatus(out io.Writer, rows []migrate.Status) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED\tFILE")
	for _, row := range rows {
		applied := "pending"
		if row.Applied {
			applied = row.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", row.Version, applied, row.Path)
	}
	_ = w.Flush()
}
