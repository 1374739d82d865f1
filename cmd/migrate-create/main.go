package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hear-me-out/internal/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	name := flag.String("name", "", "migration name")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()
	logger.Setup("info", true)

	upPath, downPath, err := migrationPaths(*dir, *name, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid migration name")
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create migrations dir")
	}
	if err := writeFile(upPath, "-- up migration\n"); err != nil {
		log.Fatal().Err(err).Msg("create up migration")
	}
	if err := writeFile(downPath, "-- down migration\n"); err != nil {
		log.Fatal().Err(err).Msg("create down migration")
	}
	log.Info().Str("up", upPath).Str("down", downPath).Msg("migration created")
}

// migrationPaths names a golang-migrate file pair after the UTC timestamp.
func migrationPaths(dir, name string, now time.Time) (string, string, error) {
	if name == "" {
		return "", "", fmt.Errorf("migration name is required")
	}
	if strings.ContainsAny(name, " /\\") {
		return "", "", fmt.Errorf("migration name %q must not contain spaces or slashes", name)
	}
	base := fmt.Sprintf("%s_%s", now.UTC().Format("20060102150405"), name)
	return filepath.Join(dir, base+".up.sql"), filepath.Join(dir, base+".down.sql"), nil
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
