// seed inserts a development owner and one onboarded employee. Idempotent: skips when the owner exists.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"staffhub/backend/internal/config"
	"staffhub/backend/internal/db"
	employeedomain "staffhub/backend/internal/employee/domain"
	employeerepo "staffhub/backend/internal/employee/repository"
	identitydomain "staffhub/backend/internal/identity/domain"
	identityrepo "staffhub/backend/internal/identity/repository"
	"staffhub/backend/internal/logging"
	"staffhub/backend/internal/security"
	"staffhub/backend/internal/store"
	taskdomain "staffhub/backend/internal/task/domain"
	taskrepo "staffhub/backend/internal/task/repository"
)

const (
	ownerEmail    = "owner@example.com"
	ownerPhone    = "+15550000001"
	employeeEmail = "employee@example.com"
	employeePhone = "+15550000002"
	devPassword   = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer pool.Close()

	if err := seed(ctx, store.NewPostgresStore(pool), security.NewHasher(cfg.BcryptCost), log); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
}

func seed(ctx context.Context, docs store.Store, hasher *security.Hasher, log zerolog.Logger) error {
	identities := identityrepo.NewDocumentRepository(docs)
	employees := employeerepo.NewDocumentRepository(docs)
	tasks := taskrepo.NewDocumentRepository(docs)

	existing, err := identities.GetByChannel(ctx, identitydomain.ChannelEmail, ownerEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info().Str("email", ownerEmail).Msg("seed already applied; skipping")
		return nil
	}

	hash, err := hasher.Hash(devPassword)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	owner := &identitydomain.AuthIdentity{Phone: ownerPhone, Role: identitydomain.RoleOwner, CreatedAt: now}
	if err := identities.Create(ctx, owner); err != nil {
		return err
	}
	ownerByEmail := &identitydomain.AuthIdentity{Email: ownerEmail, Username: "owner", PasswordHash: hash, Role: identitydomain.RoleOwner, CreatedAt: now}
	if err := identities.Create(ctx, ownerByEmail); err != nil {
		return err
	}

	emp := &employeedomain.Employee{
		Name:       "Sample Employee",
		Phone:      employeePhone,
		Email:      employeeEmail,
		Role:       identitydomain.RoleEmployee,
		HasAccount: true,
		CreatedAt:  now,
	}
	if err := employees.Create(ctx, emp); err != nil {
		return err
	}
	empIdent := &identitydomain.AuthIdentity{Email: employeeEmail, Username: "employee", PasswordHash: hash, Role: identitydomain.RoleEmployee, CreatedAt: now}
	if err := identities.Create(ctx, empIdent); err != nil {
		return err
	}

	task := &taskdomain.Task{
		Title:       "Stock the front shelves",
		Description: "Restock aisle 3 before opening.",
		AssigneeID:  emp.ID,
		Email:       emp.Email,
		Assignee:    taskdomain.Assignee{Name: emp.Name, Email: emp.Email, Phone: emp.Phone},
		Status:      taskdomain.StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tasks.Create(ctx, task); err != nil {
		return err
	}

	log.Info().
		Str("owner_email", ownerEmail).
		Str("owner_phone", ownerPhone).
		Str("employee_email", employeeEmail).
		Str("password", devPassword).
		Msg("seed complete")
	return nil
}
