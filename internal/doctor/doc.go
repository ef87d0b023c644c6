// Package doctor provides diagnostic and repair functionality for tp's
// targets and bundle pool.
//
// The doctor package detects and optionally repairs issues including:
//
//   - Target issues: registry entries whose target file is gone, mementos
//     that no longer parse, and target files that fail to load.
//
//   - Location issues: container locations with undefined variables or
//     paths that do not exist, and features missing from their
//     installation.
//
//   - Bundle issues: restrictions naming bundles or versions a container
//     does not provide, and bundles with unreadable manifests. Only checked
//     when resolution is requested, since installable unit locations may
//     need to provision.
//
//   - Pool issues: bundle pool index entries whose artifact was deleted.
//
// # Usage
//
// Run diagnostics:
//
//	err := doctor.Run(ctx, svc, doctor.Options{})           // check only
//	err := doctor.Run(ctx, svc, doctor.Options{Fix: true})  // check and fix
//
// Only target and pool issues are fixable: stale registry entries are
// removed and the pool index is pruned. Location and bundle issues need a
// change to the target itself.
package doctor
