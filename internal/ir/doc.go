// Package ir provides the descriptor types produced by the kernel generator.
//
// This package contains type definitions and their serialization only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Argument order, shape order and kernel order are significant and are
//     preserved exactly so regenerated sources diff cleanly
//   - Kernel identity is content addressed (see KernelID)
//   - All JSON tags use snake_case
package ir
