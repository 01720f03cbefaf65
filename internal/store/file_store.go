package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/soyeahso/aiosforge/internal/domain"
)

// FileStore persists the generated files of a project.
type FileStore struct {
	db *DB
}

// NewFileStore creates a file store using the given database.
func NewFileStore(db *DB) *FileStore {
	return &FileStore{db: db}
}

func projectExists(q interface {
	QueryRow(string, ...any) *sql.Row
}, id string) error {
	var one int
	err := q.QueryRow(`SELECT 1 FROM projects WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking project %s: %w", id, err)
	}
	return nil
}

// Replace swaps the stored file set of a project for files.
func (s *FileStore) Replace(projectID string, files []domain.GeneratedFile) error {
	err := s.db.withTx(func(tx *sql.Tx) error {
		if err := projectExists(tx, projectID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM generated_files WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("clearing files: %w", err)
		}
		stmt, err := tx.Prepare(
			`INSERT INTO generated_files (project_id, position, path, content, type, compliance_status, compliance_notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		now := s.db.timestamp()
		for i, f := range files {
			status := f.ComplianceStatus
			if status == "" {
				status = domain.CompliancePending
			}
			if _, err := stmt.Exec(projectID, i, f.Path, f.Content, string(f.Type), string(status), f.ComplianceNotes, now); err != nil {
				return fmt.Errorf("saving file %s: %w", f.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.db.log.Debug().Str("project", projectID).Int("files", len(files)).Msg("generated files replaced")
	return nil
}

// List returns the stored files of a project in generation order.
func (s *FileStore) List(projectID string) ([]domain.GeneratedFile, error) {
	if err := projectExists(s.db.sql, projectID); err != nil {
		return nil, err
	}
	rows, err := s.db.sql.Query(
		`SELECT path, content, type, compliance_status, compliance_notes
		 FROM generated_files WHERE project_id = ? ORDER BY position`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	files := []domain.GeneratedFile{}
	for rows.Next() {
		var f domain.GeneratedFile
		var typ, status string
		if err := rows.Scan(&f.Path, &f.Content, &typ, &status, &f.ComplianceNotes); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		f.Type = domain.FileType(typ)
		f.ComplianceStatus = domain.ComplianceStatus(status)
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpdateCompliance records reviewer verdicts on stored files. Results for
// unknown paths or with a status that is not a verdict are skipped. It
// returns the number of files updated.
func (s *FileStore) UpdateCompliance(projectID string, results map[string]domain.ComplianceResult) (int, error) {
	updated := 0
	err := s.db.withTx(func(tx *sql.Tx) error {
		if err := projectExists(tx, projectID); err != nil {
			return err
		}
		for path, r := range results {
			if !r.Status.Verdict() {
				continue
			}
			res, err := tx.Exec(
				`UPDATE generated_files SET compliance_status = ?, compliance_notes = ?
				 WHERE project_id = ? AND path = ?`,
				string(r.Status), r.Notes, projectID, path,
			)
			if err != nil {
				return fmt.Errorf("updating %s: %w", path, err)
			}
			n, _ := res.RowsAffected()
			updated += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
