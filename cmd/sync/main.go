package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"rental-scout/internal/app"
	"rental-scout/internal/config"
)

// One-shot sync pass, for cron and for operating outside the HTTP server.
// With -email it syncs a single user; otherwise the full batch.
func main() {
	email := flag.String("email", "", "sync only the user with this email")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if e := strings.TrimSpace(*email); e != "" {
		usr, err := c.Users.GetByEmail(ctx, strings.ToLower(e))
		if err != nil {
			log.Fatalf("lookup user %q failed: %v", e, err)
		}

		res := c.SyncUC.SyncUser(ctx, usr)
		logger.Printf("[Sync] user done | email=%s new_matches=%d errors=%v", usr.Email, res.NewMatches, res.Errors)
		return
	}

	res, err := c.SyncUC.SyncAllUsers(ctx)
	if err != nil {
		log.Fatalf("batch sync failed: %v", err)
	}

	logger.Printf("[Sync] batch done | users=%d new_matches=%d", res.TotalUsers, res.TotalNewMatches)
	for _, ur := range res.UserResults {
		if len(ur.Errors) > 0 {
			logger.Printf("[Sync] user errors | email=%s errors=%v", ur.Email, ur.Errors)
		}
	}
}
