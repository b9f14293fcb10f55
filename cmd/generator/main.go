// Command generator seeds sessions and users for dev and load-test
// environments, standing in for the catalog subsystem that owns the
// session registry in production.
package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"matinee/internal/config"
	"matinee/internal/database"
	"matinee/internal/logger"
	"matinee/internal/models"
)

var (
	sessionCount  = flag.Int("sessions", 20, "Number of sessions to generate")
	playerCount   = flag.Int("players", 50, "Number of player accounts to generate")
	hostCount     = flag.Int("hosts", 3, "Number of hosts; each gets one staff account")
	clearExisting = flag.Bool("clear", false, "Clear existing sessions and users before generating")
	password      = flag.String("password", "secret", "Password for every generated account")
)

var titles = []string{
	"The Silent Manor", "Midnight Express", "The Jade Cipher",
	"Echoes of the Opera", "The Last Banquet", "Paper Moon Conspiracy",
	"The Clockmaker's Daughter", "Harbor of Lies",
}

var rooms = []string{"Red Room", "Blue Room", "Atrium", "Cellar", "Gallery"}

type Generator struct {
	db *database.DB
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")

	slog.Info("Starting generator...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	g := &Generator{db: db}

	if *clearExisting {
		if err := g.clear(); err != nil {
			slog.Error("Failed to clear existing data", "error", err)
			os.Exit(1)
		}
	}

	if err := g.generateUsers(); err != nil {
		slog.Error("Failed to generate users", "error", err)
		os.Exit(1)
	}
	if err := g.generateSessions(); err != nil {
		slog.Error("Failed to generate sessions", "error", err)
		os.Exit(1)
	}

	slog.Info("Generation completed successfully")
}

func (g *Generator) clear() error {
	_, err := g.db.Exec(`TRUNCATE settlements, bookings, holds, sessions, users RESTART IDENTITY`)
	return err
}

func hashPassword(plain string) string {
	h := sha256.Sum256([]byte(plain))
	return fmt.Sprintf("%x", h)
}

func (g *Generator) generateUsers() error {
	hash := hashPassword(*password)

	insert := func(email, name, role string, hostID *int64) error {
		_, err := g.db.Exec(`
			INSERT INTO users (email, password_hash, name, role, host_id, is_active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			ON CONFLICT (email) DO NOTHING`,
			email, hash, name, role, hostID)
		return err
	}

	if err := insert("owner@matinee.local", "Owner", models.RoleOwner, nil); err != nil {
		return err
	}

	for h := 1; h <= *hostCount; h++ {
		hostID := int64(h)
		email := fmt.Sprintf("staff%d@matinee.local", h)
		if err := insert(email, fmt.Sprintf("Staff %d", h), models.RoleStaff, &hostID); err != nil {
			return err
		}
	}

	for p := 1; p <= *playerCount; p++ {
		email := fmt.Sprintf("player%d@matinee.local", p)
		if err := insert(email, fmt.Sprintf("Player %d", p), models.RolePlayer, nil); err != nil {
			return err
		}
	}

	slog.Info("Generated users", "players", *playerCount, "staff", *hostCount)
	return nil
}

func (g *Generator) generateSessions() error {
	for i := 0; i < *sessionCount; i++ {
		title := titles[rand.Intn(len(titles))]
		room := rooms[rand.Intn(len(rooms))]
		hostID := int64(rand.Intn(*hostCount) + 1)
		capacity := 4 + rand.Intn(8)
		priceCents := int64((80 + rand.Intn(120)) * 100)
		start := time.Now().Add(time.Duration(1+rand.Intn(72)) * time.Hour).Truncate(time.Hour)
		end := start.Add(3 * time.Hour)

		_, err := g.db.Exec(`
			INSERT INTO sessions (title, room_name, host_id, capacity, start_time, end_time, status, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, 'OPEN', $7)`,
			title, room, hostID, capacity, start, end, priceCents)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}

	slog.Info("Generated sessions", "count", *sessionCount)
	return nil
}
