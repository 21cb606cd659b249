package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// KernelRecord is one kernel row of a recorded run.
type KernelRecord struct {
	Position     int    `json:"position"`
	KernelID     string `json:"kernel_id"`
	FunctionName string `json:"function_name"`
	Kind         string `json:"kind"`
	ArrayType    string `json:"arraytype"`
	Ellipses     string `json:"ellipses"`
	Content      string `json:"-"` // canonical JSON of the kernel
}

const runColumns = `id, module, seq, config_path, descriptor_hash, kernel_count, ir_version, generator_version`

// Runs returns every run of module, oldest first.
//
// Returns an empty slice (not nil) if the module has no runs.
func (s *Store) Runs(ctx context.Context, module string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE module = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, module)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Run returns the run with the given ID, or ErrRunNotFound.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// FindRunByHash returns the most recent run of module whose descriptor hash
// equals hash. The boolean is false when no such run exists.
func (s *Store) FindRunByHash(ctx context.Context, module, hash string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE module = ? AND descriptor_hash = ?
		ORDER BY seq DESC
		LIMIT 1
	`, module, hash)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// Kernels returns the kernels of a run in generation order.
func (s *Store) Kernels(ctx context.Context, runID string) ([]KernelRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, kernel_id, function_name, kind, arraytype, ellipses, content
		FROM kernels
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query kernels: %w", err)
	}
	defer rows.Close()

	kernels := []KernelRecord{}
	for rows.Next() {
		var k KernelRecord
		if err := rows.Scan(&k.Position, &k.KernelID, &k.FunctionName, &k.Kind, &k.ArrayType, &k.Ellipses, &k.Content); err != nil {
			return nil, fmt.Errorf("scan kernel: %w", err)
		}
		kernels = append(kernels, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kernels: %w", err)
	}
	return kernels, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.Module,
		&run.Seq,
		&run.ConfigPath,
		&run.DescriptorHash,
		&run.KernelCount,
		&run.IRVersion,
		&run.GeneratorVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}
