package main

import (
	"context"
	"errors"
	"log"
	"os"

	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/repository/unitofwork"
	"realtime-chat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Seeds a development database with a few accounts and a General room.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	store := gateway.NewGormGateway(unitofwork.NewRepositoryFactory(db))
	ctx := context.Background()

	color.Cyan("Seeding chat accounts...")

	seedUsers := []struct {
		Username string
		Password string
		Email    string
		FullName string
	}{
		{"admin", "admin12345", "admin@example.com", "Administrator"},
		{"john", "john12345", "john@example.com", "John Carter"},
		{"jane", "jane12345", "jane@example.com", "Jane Miller"},
	}

	for _, su := range seedUsers {
		user, err := store.CreateUser(ctx, su.Username, su.Password, su.Email, su.FullName)
		if err != nil {
			if errors.Is(err, gateway.ErrDuplicateKey) {
				color.Yellow("User %q already exists, skipping", su.Username)
				continue
			}
			color.Red("Failed to create user %q: %v", su.Username, err)
			continue
		}
		color.Green("Created user %s (%s)", user.Username, user.Id)
	}

	color.Cyan("Seeding rooms...")

	admin, err := store.UserByUsername(ctx, "admin")
	if err != nil {
		color.Red("Cannot seed rooms, admin account missing: %v", err)
		os.Exit(1)
	}

	room, err := store.CreateRoom(ctx, "General", "Open room for everyone", admin.Id)
	if err != nil {
		if errors.Is(err, gateway.ErrDuplicateKey) {
			color.Yellow("Room General already exists, skipping")
		} else {
			color.Red("Failed to create room: %v", err)
		}
	} else {
		color.Green("Created room General (%s)", room.Id)
	}

	color.Cyan("Seeding completed!")
}
