package sql

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedded embed.FS

type migration struct {
	order   int
	name    string
	content []byte
}

// Migrations is a function that brings the schema of the database to the latest version.
type Migrations func(Executor, *zap.Logger) error

func loadMigrations() ([]migration, error) {
	var migrations []migration
	err := fs.WalkDir(embedded, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		parts := strings.Split(d.Name(), "_")
		order, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("invalid migration %s: %w", d.Name(), err)
		}
		content, err := embedded.ReadFile(path)
		if err != nil {
			return fmt.Errorf("readfile %s: %w", path, err)
		}
		migrations = append(migrations, migration{
			order:   order,
			name:    d.Name(),
			content: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].order < migrations[j].order
	})
	return migrations, nil
}

func splitStatements(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte(";")); i >= 0 {
		return i + 1, data[0 : i+1], nil
	}
	if atEOF && len(bytes.TrimSpace(data)) > 0 {
		return len(data), data, nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// LatestVersion returns the version of the newest embedded migration.
func LatestVersion() (int, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}
	return migrations[len(migrations)-1].order, nil
}

func version(db Executor) (int, error) {
	var current int
	if _, err := db.Exec("PRAGMA user_version;", nil, func(stmt *Statement) bool {
		current = stmt.ColumnInt(0)
		return true
	}); err != nil {
		return 0, fmt.Errorf("read user_version %w", err)
	}
	return current, nil
}

func embeddedMigrations(db Executor, logger *zap.Logger) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	current, err := version(db)
	if err != nil {
		return err
	}
	if len(migrations) > 0 && current > migrations[len(migrations)-1].order {
		return fmt.Errorf("%w: %d > %d", ErrTooNew, current, migrations[len(migrations)-1].order)
	}

	for _, m := range migrations {
		if m.order <= current {
			continue
		}
		logger.Info("running migration", zap.String("name", m.name), zap.Int("order", m.order))
		scanner := bufio.NewScanner(bytes.NewReader(m.content))
		scanner.Split(splitStatements)
		for scanner.Scan() {
			stmt := strings.TrimSpace(scanner.Text())
			if len(stmt) == 0 {
				continue
			}
			if _, err := db.Exec(stmt, nil, nil); err != nil {
				return fmt.Errorf("exec %s: %w", stmt, err)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", m.name, err)
		}
		// binding values in pragma statement is not allowed
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d;", m.order), nil, nil); err != nil {
			return fmt.Errorf("update user_version to %d: %w", m.order, err)
		}
	}
	return nil
}
