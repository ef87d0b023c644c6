// Package bundle describes bundles found in a target platform.
//
// A bundle is identified by symbolic name and version ([Info]). Scanning a
// location yields a [Resolved] bundle: its identity, a [Status], and three
// independent flags (source, optional, fragment).
//
// # Source classification
//
// [Generator] decides whether a bundle holds source or code, in this order:
//
//  1. an Eclipse-SourceBundle header marks a source bundle
//  2. a bundle archive (.jar) is code
//  3. a Bundle-ClassPath header marks code
//  4. a legacy plugin.xml contributing to the source extension point marks
//     a source bundle (see package extreg)
//
// Everything else is code. Step 4 needs an extension registry; a [Scope]
// creates one on first use and must be closed when the scan ends.
//
// # Restrictions
//
// [Restrict] narrows a scan result to a list of [Restriction] entries,
// picking the matching version (or the newest) and reporting missing bundles
// through their status instead of failing.
package bundle
