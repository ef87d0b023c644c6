// Package p2 provisions installable units into per-target profiles.
//
// The moving parts mirror a provisioning platform:
//
//   - [Unit]: an installable unit with capabilities, requirements and
//     artifact keys
//   - [MetadataRepository] / [ArtifactRepository]: YAML indexes
//     (content.yml, artifacts.yml) in a directory or behind an http(s) URL,
//     loaded through a [RepositoryManager]
//   - [Profile]: the installed state of one target, persisted as JSON by a
//     [ProfileRegistry] and guarded by a file lock
//   - [Planner]: turns a [ChangeRequest] into a [Plan] of operands
//   - [Engine]: performs a plan, phase by phase, into a profile and the
//     bundle pool
//   - [Agent]: service lookup; a missing service yields a [ServiceError]
//
// # Repository format
//
// content.yml:
//
//	name: Example
//	units:
//	  - id: org.example.a
//	    version: 1.0.0
//	    provides:
//	      - {namespace: osgi.bundle, name: org.example.a, version: 1.0.0}
//	    requires:
//	      - {namespace: osgi.bundle, name: org.example.b, range: "[1.0.0,2.0.0)"}
//	    artifacts:
//	      - {classifier: osgi.bundle, id: org.example.a, version: 1.0.0}
//
// artifacts.yml:
//
//	artifacts:
//	  - {classifier: osgi.bundle, id: org.example.a, version: 1.0.0, path: plugins/org.example.a_1.0.0.jar}
//
// # Phases
//
// [Engine.Perform] runs the phases selected by a [Phase] bit set in a fixed
// order. Cancellation is checked between phases.
package p2
