package doctor

// IssueCategory groups issues by type.
type IssueCategory string

const (
	// CategoryTarget represents unreadable or missing target files.
	CategoryTarget IssueCategory = "target"
	// CategoryLocation represents container locations that cannot be used.
	CategoryLocation IssueCategory = "location"
	// CategoryBundle represents bundle problems in resolution results.
	CategoryBundle IssueCategory = "bundle"
	// CategoryPool represents pool index entries without artifact.
	CategoryPool IssueCategory = "pool"
)

// Fix actions.
const (
	FixUnregister = "unregister"
	FixPrune      = "prune"
)

// Issue represents a problem detected by doctor.
type Issue struct {
	Key         string        // target name, memento or pool key
	Description string        // human-readable description
	FixAction   string        // what --fix would do, empty if not fixable
	Category    IssueCategory // issue category
	Memento     string        // target memento for registry repairs
}

// IssueStats tracks counts by category.
type IssueStats struct {
	TargetsValid   int // targets that load
	TargetIssues   int // missing or unreadable targets
	LocationIssues int // unusable container locations
	BundleErrors   int // bundles with error status
	BundleWarnings int // bundles with warning or info status
	PoolEntries    int // indexed pool artifacts
	PoolMissing    int // indexed pool artifacts without file
}

// Options controls a doctor run.
type Options struct {
	Fix     bool // apply fixes
	Resolve bool // resolve targets to check restrictions and manifests
}
