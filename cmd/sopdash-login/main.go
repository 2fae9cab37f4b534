// Command sopdash-login performs the credential exchange against the remote
// SOP API and persists the bearer token where the dashboard and the
// snapshot worker pick it up. Useful for headless deployments where nobody
// logs in through the browser.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sopdash/internal/api"
	"sopdash/internal/config"
	"sopdash/internal/log"
	"sopdash/internal/session"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentSession)
	log.SetDefault(logger)

	username := flag.String("username", "", "account username (prompted when empty)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	user := strings.TrimSpace(*username)
	if user == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			logger.Error("Failed reading username", log.FieldError, err)
			os.Exit(1)
		}
		user = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		logger.Error("Failed reading password", log.FieldError, err)
		os.Exit(1)
	}
	password := strings.TrimRight(line, "\r\n")

	client := api.NewClient(cfg.APIBaseURL)
	sess := session.New(cfg.TokenFile)
	client.UseTokens(sess)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sess.Login(ctx, client, user, password); err != nil {
		logger.Error("Login failed",
			log.FieldOperation, log.OpLogin,
			"message", sess.LoginError())
		os.Exit(1)
	}

	fmt.Printf("Token saved to %s\n", cfg.TokenFile)
}
