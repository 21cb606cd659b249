package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/kernelgen/internal/ir"
)

// Run is one recorded generation of a module descriptor.
type Run struct {
	ID               string `json:"id"`
	Module           string `json:"module"`
	Seq              int64  `json:"seq"`
	ConfigPath       string `json:"config_path"`
	DescriptorHash   string `json:"descriptor_hash"`
	KernelCount      int    `json:"kernel_count"`
	IRVersion        string `json:"ir_version"`
	GeneratorVersion string `json:"generator_version"`
}

// RecordRun stores d as the next run of its module. The run and all of its
// kernel rows are written in a single transaction.
//
// Seq starts at 1 for the first run of a module and increases by one per
// run.
func (s *Store) RecordRun(ctx context.Context, configPath string, d *ir.ModuleDescriptor) (Run, error) {
	hash, err := ir.DescriptorHash(d)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	run := Run{
		ID:               s.ids.Generate(),
		Module:           d.ModuleName,
		ConfigPath:       configPath,
		DescriptorHash:   hash,
		KernelCount:      len(d.Kernels),
		IRVersion:        ir.IRVersion,
		GeneratorVersion: ir.GeneratorVersion,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM runs WHERE module = ?`, run.Module,
	).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, module, seq, config_path, descriptor_hash, kernel_count, ir_version, generator_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Module,
		run.Seq,
		run.ConfigPath,
		run.DescriptorHash,
		run.KernelCount,
		run.IRVersion,
		run.GeneratorVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for i := range d.Kernels {
		if err := writeKernel(ctx, tx, run.ID, i, &d.Kernels[i]); err != nil {
			return Run{}, fmt.Errorf("record run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

func writeKernel(ctx context.Context, tx *sql.Tx, runID string, position int, k *ir.Kernel) error {
	content, err := marshalKernel(k)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kernels
		(run_id, position, kernel_id, function_name, kind, arraytype, ellipses, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		position,
		k.ID,
		k.FunctionName,
		k.Kind,
		k.ArrayType,
		k.Ellipses,
		content,
	)
	if err != nil {
		return fmt.Errorf("write kernel %s: %w", k.Identity(), err)
	}
	return nil
}

// marshalKernel converts a kernel to canonical JSON TEXT for storage.
func marshalKernel(k *ir.Kernel) (string, error) {
	data, err := ir.MarshalCanonical(k.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("marshal kernel %s: %w", k.Identity(), err)
	}
	return string(data), nil
}
