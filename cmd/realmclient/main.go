package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/realmgo/internal/auth"
	"github.com/udisondev/realmgo/internal/config"
	"github.com/udisondev/realmgo/internal/db"
	"github.com/udisondev/realmgo/internal/world"
)

const ConfigPath = "config/realmclient.yaml"

var errLoginEnded = errors.New("login session ended before the realm was listed")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	root := flag.String("root", ".", "directory holding "+ConfigPath)
	realmFlag := flag.Uint("realm", 0, "realm id to enter (0: auth.realm_id from config)")
	userFlag := flag.String("user", "", "account name (default: auth.username from config)")
	flag.Parse()

	cfgPath := filepath.Join(*root, ConfigPath)
	if p := os.Getenv("REALMGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	username := cfg.Auth.Username
	if *userFlag != "" {
		username = *userFlag
	}
	if username == "" {
		return errors.New("no account name: set auth.username or pass --user")
	}
	realmID := cfg.Auth.RealmID
	if *realmFlag != 0 {
		if *realmFlag > 0xFF {
			return fmt.Errorf("--realm %d out of range", *realmFlag)
		}
		realmID = uint8(*realmFlag)
	}

	slog.Info("realmgo client starting",
		"config", cfgPath,
		"server", cfg.Auth.Address(),
		"user", strings.ToUpper(username),
		"realm", realmID,
		"version", cfg.Auth.Version)

	password, err := readPassword(username)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	var opts []auth.Option
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database ready, storing realm snapshots")
		opts = append(opts, auth.WithRealmSink(db.NewRealmRepository(database.Pool(), username)))
	}

	session := auth.NewSession(cfg, opts...)

	g, gctx := errgroup.WithContext(ctx)
	worlds := make(chan *world.Session, 1)

	// login, wait for the realm, hand over to the world session
	g.Go(func() error {
		defer close(worlds)
		defer session.Shutdown()

		if err := session.Login(gctx, username, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if err := waitForRealm(gctx, session, realmID); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		ws, err := session.ConnectToRealm(gctx, realmID)
		if err != nil {
			return fmt.Errorf("connecting to realm %d: %w", realmID, err)
		}
		worlds <- ws
		return nil
	})

	g.Go(func() error {
		ws, ok := <-worlds
		if !ok {
			return nil
		}
		defer ws.Shutdown()
		return superviseWorld(gctx, ws)
	})

	return g.Wait()
}

// waitForRealm polls the login session until the realm list contains id.
func waitForRealm(ctx context.Context, s *auth.Session, id uint8) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Done():
			if err := s.Err(); err != nil {
				return err
			}
			return errLoginEnded
		case <-ticker.C:
			if realms := s.Realms(); realms != nil {
				if _, ok := s.RealmByID(id); ok {
					return nil
				}
				return fmt.Errorf("%w: id %d (%d listed)", auth.ErrRealmNotFound, id, len(realms))
			}
		}
	}
}

// superviseWorld logs the character list once and runs until the session or ctx ends.
func superviseWorld(ctx context.Context, ws *world.Session) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	reported := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ws.Done():
			if err := ws.Err(); err != nil {
				return fmt.Errorf("world session: %w", err)
			}
			return nil
		case <-ticker.C:
			if reported || ws.State() != world.StateSteady {
				continue
			}
			chars := ws.Characters()
			if chars == nil {
				continue
			}
			reported = true
			for _, c := range chars {
				slog.Info("character",
					"name", c.Name,
					"level", c.Level,
					"race", c.Race,
					"class", c.Class,
					"zone", c.Zone)
			}
			if len(chars) == 0 {
				slog.Info("no characters on this realm")
			}
		}
	}
}

// readPassword takes REALMGO_PASSWORD when set, otherwise prompts without echo
// on a terminal or reads one line from a pipe.
func readPassword(username string) (string, error) {
	if p := os.Getenv("REALMGO_PASSWORD"); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if terminal.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "Password for %s: ", strings.ToUpper(username))
		raw, err := terminal.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
