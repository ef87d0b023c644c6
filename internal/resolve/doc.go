// Package resolve turns target references given on the command line into
// target handles.
//
// # Reference Forms
//
// Commands accept a target in several forms, tried in this order:
//
//   - Memento: local:1700000000000.target or file:/abs/path/rcp.target
//   - Path: an existing .target file, relative to the working directory
//   - Name: the display name recorded in the target registry
//   - Empty: the target named in the project's .tp.toml, else the active
//     target
//
// # Suggestions
//
// An unknown name fails with a [NotFoundError] listing registered names
// that fuzzy-match the reference, so typos are easy to correct:
//
//	tp show rpc
//	Error: target not found: rpc (did you mean: rcp?)
//
// # Labels
//
// [ByLabel] selects all registered targets carrying a label, used by
// commands that operate on groups (tp resolve -l nightly).
package resolve
