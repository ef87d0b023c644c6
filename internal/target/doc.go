// Package target models target platforms and resolves them into bundles.
//
// A [Definition] holds environment settings, launcher arguments and an
// ordered list of bundle containers. Each [Container] is one way of finding
// bundles:
//
//   - [DirectoryContainer]: scans a directory of bundle roots
//   - [FeatureContainer]: the plugins referenced by one feature
//   - [ProfileContainer]: the bundles.info registry of an installation
//   - [IUContainer]: installable units provisioned from repositories
//
// # Resolution
//
// [Definition.ResolveBundles] and [Definition.ResolveSourceBundles] call each
// container in order and concatenate the results. Bundles are not
// deduplicated across containers. The first container that fails aborts
// the call. Problems with single bundles (an unreadable manifest, a missing
// artifact) are logged and skipped inside the container.
//
// Cancellation is cooperative: directory scans check the context before
// each entry and provisioning checks it between phases. A cancelled
// resolution returns ctx.Err() unwrapped.
//
// Nothing is cached between calls except the unit list of an [IUContainer],
// which is computed once and kept until [IUContainer.Forget].
//
// # Persistence
//
// [Write] and [Read] convert definitions to and from the target XML format:
//
//	<?xml version="1.0" encoding="UTF-8" standalone="no"?>
//	<?pde version="3.5"?>
//	<target name="Example">
//	  <locations>
//	    <location path="${user.home}/bundles" type="Directory">
//	      <restriction>com.example.a</restriction>
//	    </location>
//	  </locations>
//	  <environment><os>linux</os></environment>
//	  <launcherArgs><vmArgs>-Xmx512m</vmArgs></launcherArgs>
//	</target>
//
// Locations without a type attribute are read as directories.
//
// # Handles
//
// Definitions are identified by a [Handle]. Local handles live in the
// metadata directory and are named by a millisecond timestamp; file handles
// point at a user-visible .target file. Handle mementos ("local:...",
// "file:...") round-trip through [Service.Handle].
package target
