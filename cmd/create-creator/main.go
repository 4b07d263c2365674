// Command create-creator provisions an exam creator account from the
// terminal, for bootstrapping a fresh deployment.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/certlab/certlab-backend/internal/config"
	"github.com/certlab/certlab-backend/internal/database"
	"github.com/certlab/certlab-backend/internal/logger"
	"github.com/certlab/certlab-backend/internal/model"
	"github.com/certlab/certlab-backend/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection failed")
	}
	defer pool.Close()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read email")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		log.Fatal().Msg("Email is required")
	}

	fmt.Print("Full name: ")
	fullName, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read name")
	}
	fullName = strings.TrimSpace(fullName)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read password")
	}
	if len(password) < 6 {
		log.Fatal().Msg("Password must be at least 6 characters")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read confirmation")
	}
	if string(password) != string(confirm) {
		log.Fatal().Msg("Passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword(password, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	p := &model.Profile{
		Email:        email,
		Role:         model.RoleCreator,
		PasswordHash: string(hash),
	}
	if fullName != "" {
		p.FullName = &fullName
	}

	repo := repository.NewProfileRepository(pool)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		log.Fatal().Str("email", email).Msg("An account with this email already exists")
	}
	if err := repo.Create(ctx, p); err != nil {
		log.Fatal().Err(err).Msg("Failed to create account")
	}

	log.Info().
		Str("id", p.ID.String()).
		Str("email", p.Email).
		Msg("Creator account created")
}
