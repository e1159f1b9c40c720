// Command linkfyseed stores a link record for an email in the configured
// store and prints a session blob that opens the links page for that email.
//
// Usage:
//
//	linkfyseed -email ann@example.com -url https://example.com [-code abc123] [-date 2023-03-01T10:20:30Z] [-- server flags]
//
// Storage selection follows the server settings (FIRESTORE_PROJECT_ID,
// DATABASE_DSN, FILE_STORAGE_PATH). Server flags go after "--", for example
// "-- -f db.json -k <key>". The in-memory store is refused since the record
// would vanish on exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/linkfy/internal/app"
	"github.com/patric-chuzhbe/linkfy/internal/config"
	"github.com/patric-chuzhbe/linkfy/internal/db/memorystorage"
	"github.com/patric-chuzhbe/linkfy/internal/models"
	"github.com/patric-chuzhbe/linkfy/internal/session"
)

const codeLength = 8

type seedArgs struct {
	email string
	url   string
	code  string
	date  string
	ttl   time.Duration
}

// parseSeedArgs reads the seed flags up to "--"; the remaining arguments
// are server flags handed to config.New.
func parseSeedArgs(args []string) (seedArgs, []string, error) {
	var result seedArgs
	flags := flag.NewFlagSet("linkfyseed", flag.ContinueOnError)
	flags.StringVar(&result.email, "email", "", "owner email of the link")
	flags.StringVar(&result.url, "url", "", "original URL")
	flags.StringVar(&result.code, "code", "", "short code, generated when empty")
	flags.StringVar(&result.date, "date", "", "creation date, now when empty")
	flags.DurationVar(&result.ttl, "ttl", 24*time.Hour, "session blob lifetime, 0 for no expiry")

	if err := flags.Parse(args); err != nil {
		return result, nil, err
	}
	if flags.NArg() > 0 && (len(args) < flags.NArg()+1 || args[len(args)-flags.NArg()-1] != "--") {
		return result, nil, fmt.Errorf("unexpected argument %q, server flags go after --", flags.Arg(0))
	}
	if result.email == "" || result.url == "" {
		return result, nil, errors.New("both -email and -url are required")
	}

	return result, flags.Args(), nil
}

func newCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:codeLength]
}

func (a seedArgs) record(now time.Time) models.LinkRecord {
	record := models.LinkRecord{
		Code:        a.code,
		OriginalURL: a.url,
		Date:        a.date,
	}
	if record.Code == "" {
		record.Code = newCode()
	}
	if record.Date == "" {
		record.Date = now.UTC().Format(time.RFC3339)
	}

	return record
}

func run(args []string) error {
	seed, rest, err := parseSeedArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.New(config.WithArgs(rest))
	if err != nil {
		return err
	}

	record := seed.record(time.Now())
	if err := record.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	db, err := app.NewStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if _, ok := db.(*memorystorage.MemoryStorage); ok {
		return errors.New("no persistent store configured")
	}

	if err := db.SaveUserLink(ctx, seed.email, record); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}

	signingKey, err := cfg.SigningKey()
	if err != nil {
		return err
	}
	blob, err := session.NewCodec(signingKey, seed.ttl).Encode(session.Session{
		Email:      seed.email,
		IsLoggedIn: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved %s -> %s\n", record.Code, record.OriginalURL)
	fmt.Printf("%s=%s\n", cfg.SessionCookieName, blob)

	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
