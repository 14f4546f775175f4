package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/bcrypt"

	"attendance-portal/internal/auth"
	"attendance-portal/internal/config"
	"attendance-portal/internal/identity"
	"attendance-portal/internal/store"
)

// adminctl creates administrator accounts. The API never exposes this.
func main() {
	var (
		configPath string
		in         identity.Registration
	)
	flag.StringVar(&configPath, "config", "", "optional YAML config; environment variables override it")
	flag.StringVar(&in.Name, "name", "", "admin display name")
	flag.StringVar(&in.Email, "email", "", "admin email")
	flag.StringVar(&in.Password, "password", "", "admin password")
	flag.StringVar(&in.ProfilePicture, "picture", "", "profile picture reference")
	flag.Parse()

	if err := run(configPath, in); err != nil {
		log.Fatalf("adminctl: %v", err)
	}
}

func run(configPath string, in identity.Registration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Store.Backend == config.StoreMemory {
		return errors.New("STORE_BACKEND=memory keeps nothing after exit; point at a persistent store")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	tokens := auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
	svc := identity.NewService(backend.Users, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, nil)

	admin, err := svc.CreateAdmin(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("admin %s created with id %s in %s store\n", admin.Email, admin.ID, backend.Name)
	return nil
}
