// Package cache manages the bundle pool: the local, file-backed artifact
// store that provisioned bundles are downloaded into.
//
// The pool lives in a directory (by default ~/.tp/p2/pool) laid out the way
// an installation is:
//
//	pool/
//	  .tp-pool.json       index of stored artifacts
//	  .tp-pool.lock       flock guarding the index
//	  plugins/<id>_<version>.jar
//	  plugins/<id>_<version>/   (exploded bundles)
//	  features/<id>_<version>/
//
// # Index Structure
//
// The index maps an artifact key ("classifier/id/version") to the file
// stored for it:
//
//	{
//	  "artifacts": {
//	    "osgi.bundle/org.example.a/1.0.0": {
//	      "file": "plugins/org.example.a_1.0.0.jar",
//	      "size": 2048,
//	      "added_at": "2026-01-02T15:04:05Z"
//	    }
//	  }
//	}
//
// # Concurrency
//
// Use [LoadWithLock] for operations that modify the index. Several tp
// processes provisioning different targets may share one pool.
//
// # Related Commands
//
// "tp doctor" reports index entries whose files have disappeared.
package cache
