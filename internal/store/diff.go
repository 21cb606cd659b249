package store

import (
	"context"
	"fmt"
)

// KernelDiff compares the kernels of two runs by kernel ID. A kernel whose
// content changed shows up as removed under its old ID and added under its
// new one.
type KernelDiff struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Added     []KernelRecord `json:"added"`
	Removed   []KernelRecord `json:"removed"`
	Unchanged int            `json:"unchanged"`
}

// Empty reports whether both runs produced the same kernels.
func (d KernelDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff compares run from against run to. An empty from means "no previous
// run": every kernel of to is reported as added.
func (s *Store) Diff(ctx context.Context, from, to string) (KernelDiff, error) {
	diff := KernelDiff{From: from, To: to, Added: []KernelRecord{}, Removed: []KernelRecord{}}

	if _, err := s.Run(ctx, to); err != nil {
		return KernelDiff{}, fmt.Errorf("diff: %w", err)
	}
	newKernels, err := s.Kernels(ctx, to)
	if err != nil {
		return KernelDiff{}, fmt.Errorf("diff: %w", err)
	}

	var oldKernels []KernelRecord
	if from != "" {
		if _, err := s.Run(ctx, from); err != nil {
			return KernelDiff{}, fmt.Errorf("diff: %w", err)
		}
		if oldKernels, err = s.Kernels(ctx, from); err != nil {
			return KernelDiff{}, fmt.Errorf("diff: %w", err)
		}
	}

	oldIDs := make(map[string]bool, len(oldKernels))
	for _, k := range oldKernels {
		oldIDs[k.KernelID] = true
	}
	newIDs := make(map[string]bool, len(newKernels))
	for _, k := range newKernels {
		newIDs[k.KernelID] = true
		if oldIDs[k.KernelID] {
			diff.Unchanged++
		} else {
			diff.Added = append(diff.Added, k)
		}
	}
	for _, k := range oldKernels {
		if !newIDs[k.KernelID] {
			diff.Removed = append(diff.Removed, k)
		}
	}
	return diff, nil
}
