package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// Supported SQL drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const createVersionsTable = `CREATE TABLE IF NOT EXISTS artifact_versions (
	group_id       TEXT NOT NULL,
	artifact_id    TEXT NOT NULL,
	version        TEXT NOT NULL,
	repository_id  TEXT NOT NULL,
	repository_url TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (group_id, artifact_id, version, repository_id)
)`

// SQLIndex is a version index backed by a SQL table. It only answers version
// range queries; descriptors come from another backend.
type SQLIndex struct {
	db     *sql.DB
	driver string
	log    *logrus.Logger
}

// OpenSQLIndex opens a database and verifies the connection
func OpenSQLIndex(ctx context.Context, driver, dsn string, log *logrus.Logger) (*SQLIndex, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	return NewSQLIndex(db, driver, log), nil
}

// NewSQLIndex wraps an open database
func NewSQLIndex(db *sql.DB, driver string, log *logrus.Logger) *SQLIndex {
	if log == nil {
		log = logrus.New()
	}
	return &SQLIndex{db: db, driver: driver, log: log}
}

// DB returns the underlying database
func (s *SQLIndex) DB() *sql.DB { return s.db }

// Close closes the database
func (s *SQLIndex) Close() error { return s.db.Close() }

// Migrate creates the versions table if needed
func (s *SQLIndex) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createVersionsTable); err != nil {
		return fmt.Errorf("failed to create artifact_versions: %w", err)
	}
	return nil
}

// Publish records that a version of an artifact is available in repo
func (s *SQLIndex) Publish(ctx context.Context, a artifact.Artifact, repo Remote) error {
	query := s.rebind(`INSERT INTO artifact_versions (group_id, artifact_id, version, repository_id, repository_url)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`)
	if _, err := s.db.ExecContext(ctx, query, a.GroupID(), a.ArtifactID(), a.Version(), repo.ID, repo.URL); err != nil {
		return fmt.Errorf("failed to publish %s: %w", a, err)
	}
	return nil
}

// ListVersions implements VersionLister. Only rows hosted by one of repos
// are returned; an empty repos list matches every repository.
func (s *SQLIndex) ListVersions(ctx context.Context, a artifact.Artifact, repos []Remote) ([]string, map[string]Remote, error) {
	query := s.rebind(`SELECT version, repository_id, repository_url FROM artifact_versions
		WHERE group_id = ? AND artifact_id = ?`)
	rows, err := s.db.QueryContext(ctx, query, a.GroupID(), a.ArtifactID())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	allowed := make(map[string]int, len(repos))
	for i, r := range repos {
		if _, ok := allowed[r.ID]; !ok {
			allowed[r.ID] = i
		}
	}

	var versions []string
	hosts := make(map[string]Remote)
	for rows.Next() {
		var v string
		var repo Remote
		if err := rows.Scan(&v, &repo.ID, &repo.URL); err != nil {
			return nil, nil, fmt.Errorf("failed to scan version: %w", err)
		}
		if len(repos) > 0 {
			idx, ok := allowed[repo.ID]
			if !ok {
				continue
			}
			repo = repos[idx]
		}
		if prev, seen := hosts[v]; seen {
			// first repository in request order wins
			if len(repos) == 0 || allowed[prev.ID] <= allowed[repo.ID] {
				continue
			}
		} else {
			versions = append(versions, v)
		}
		hosts[v] = repo
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate versions: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"artifact": a.VersionlessKey(),
		"versions": len(versions),
	}).Debug("Listed versions from sql index")
	return versions, hosts, nil
}

// ResolveVersionRange implements VersionRangeResolver
func (s *SQLIndex) ResolveVersionRange(ctx context.Context, req RangeRequest) (*RangeResult, error) {
	return ResolveWith(ctx, s, req)
}

// rebind rewrites '?' placeholders into the driver's style
func (s *SQLIndex) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
