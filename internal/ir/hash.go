package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainKernel     = "kernelgen/kernel/v1"
	DomainDescriptor = "kernelgen/descriptor/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// KernelID computes the content-addressed ID of a kernel variant.
// The ID is stable across regenerations of the same config.
func KernelID(k *Kernel) (string, error) {
	canonical, err := MarshalCanonical(k.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("KernelID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainKernel, canonical), nil
}

// DescriptorHash computes a digest over the ordered kernel IDs and the module
// level fields of a descriptor. Two runs with the same hash generate the same
// kernels in the same order.
func DescriptorHash(d *ModuleDescriptor) (string, error) {
	ids := make([]any, len(d.Kernels))
	for i, k := range d.Kernels {
		ids[i] = k.ID
	}
	tests := make([]any, len(d.TypemapTests))
	for i, tc := range d.TypemapTests {
		tests[i] = map[string]any{
			"orig_type":   tc.OrigType,
			"normal_type": tc.NormalType,
			"ctype":       tc.CType,
		}
	}
	obj := map[string]any{
		"module_name":   d.ModuleName,
		"includes":      d.Includes,
		"include_dirs":  nonNil(d.IncludeDirs),
		"sources":       nonNil(d.Sources),
		"kernels":       ids,
		"typemap_tests": tests,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DescriptorHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDescriptor, canonical), nil
}
