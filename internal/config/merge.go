package config

import "maps"

// MergeLocal merges a project config into a global config,
// returning a new Config without mutating the global.
// Returns global unchanged if local is nil.
func MergeLocal(global *Config, local *LocalConfig) *Config {
	if local == nil {
		return global
	}

	merged := *global

	if local.Target != "" {
		merged.Target = local.Target
	}

	if len(local.Repositories) > 0 {
		merged.Repositories = appendUnique(global.Repositories, local.Repositories)
	}

	if len(local.Variables) > 0 {
		merged.Variables = make(map[string]string, len(global.Variables)+len(local.Variables))
		maps.Copy(merged.Variables, global.Variables)
		maps.Copy(merged.Variables, local.Variables)
	}

	if local.Environment.OS != "" {
		merged.Environment.OS = local.Environment.OS
	}
	if local.Environment.WS != "" {
		merged.Environment.WS = local.Environment.WS
	}
	if local.Environment.Arch != "" {
		merged.Environment.Arch = local.Environment.Arch
	}
	if local.Environment.NL != "" {
		merged.Environment.NL = local.Environment.NL
	}

	return &merged
}

// appendUnique appends items from extra to base, skipping duplicates.
// Returns a new slice (never mutates base).
func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	result := make([]string, 0, len(base)+len(extra))
	for _, v := range base {
		if !seen[v] {
			result = append(result, v)
			seen[v] = true
		}
	}
	for _, v := range extra {
		if !seen[v] {
			result = append(result, v)
			seen[v] = true
		}
	}
	return result
}
