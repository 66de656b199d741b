// Package main is the vvtv-backup CLI: snapshot, verify, restore, and
// push against the Cloudflare R2 mirror. It wraps internal/backup
// directly — there is no daemon state here, just one-shot operations an
// operator or a cron job runs against a stopped or running vvtvd.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/backup"
	"github.com/danvoulez/voulezvous-tv/internal/store"
	"github.com/danvoulez/voulezvous-tv/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backup":
		runBackup(os.Args[2:])
	case "verify":
		runVerify(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	case "push":
		runPush(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vvtv-backup <command> [flags]

commands:
  backup  --state-db PATH --owner-card PATH --out DIR
  verify  --snapshot DIR
  restore --snapshot DIR --state-db PATH --owner-card PATH [--force]
  push    --snapshot DIR --account-id ID --access-key KEY --secret-key KEY --bucket NAME [--prefix PREFIX]`)
}

func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	stateDBPath := fs.String("state-db", "", "state db path to snapshot")
	ownerCardPath := fs.String("owner-card", "", "owner card path to seal into the snapshot")
	outDir := fs.String("out", "runtime/backups", "directory to write the timestamped snapshot into")
	fs.Parse(args)

	if *stateDBPath == "" || *ownerCardPath == "" {
		fmt.Fprintln(os.Stderr, "backup: --state-db and --owner-card are both required")
		os.Exit(2)
	}

	log := logger.New(logger.Config{Level: "info", Pretty: true})
	db, err := store.Open(*stateDBPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup: failed to open state db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	snapshotDir, err := backup.Run(db, *ownerCardPath, *outDir, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot written to %s\n", snapshotDir)
}

func runVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	snapshotDir := fs.String("snapshot", "", "snapshot directory to verify")
	fs.Parse(args)

	if *snapshotDir == "" {
		fmt.Fprintln(os.Stderr, "verify: --snapshot is required")
		os.Exit(2)
	}

	manifest, err := backup.Verify(*snapshotDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot OK: schema_version=%d created_at=%s\n", manifest.SchemaVersion, manifest.CreatedAt.Format(time.RFC3339))
}

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	snapshotDir := fs.String("snapshot", "", "snapshot directory to restore from")
	stateDBPath := fs.String("state-db", "", "destination state db path")
	ownerCardPath := fs.String("owner-card", "", "destination owner card path")
	force := fs.Bool("force", false, "overwrite existing destination files")
	fs.Parse(args)

	if *snapshotDir == "" || *stateDBPath == "" || *ownerCardPath == "" {
		fmt.Fprintln(os.Stderr, "restore: --snapshot, --state-db, and --owner-card are all required")
		os.Exit(2)
	}

	manifest, err := backup.Restore(*snapshotDir, *stateDBPath, *ownerCardPath, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("restored snapshot from %s (schema_version=%d)\n", *snapshotDir, manifest.SchemaVersion)
}

func runPush(args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	snapshotDir := fs.String("snapshot", "", "snapshot directory to push")
	accountID := fs.String("account-id", "", "Cloudflare R2 account id")
	accessKey := fs.String("access-key", "", "R2 access key id")
	secretKey := fs.String("secret-key", "", "R2 secret access key")
	bucket := fs.String("bucket", "", "R2 bucket name")
	prefix := fs.String("prefix", "", "key prefix under the bucket")
	fs.Parse(args)

	if *snapshotDir == "" || *accountID == "" || *accessKey == "" || *secretKey == "" || *bucket == "" {
		fmt.Fprintln(os.Stderr, "push: --snapshot, --account-id, --access-key, --secret-key, and --bucket are all required")
		os.Exit(2)
	}

	log := logger.New(logger.Config{Level: "info", Pretty: true})
	mirror, err := backup.NewRemoteMirror(*accountID, *accessKey, *secretKey, *bucket, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "push: failed to build remote mirror: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := mirror.Push(ctx, *snapshotDir, *prefix); err != nil {
		fmt.Fprintf(os.Stderr, "push failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("pushed %s to r2://%s/%s\n", *snapshotDir, *bucket, *prefix)
}
