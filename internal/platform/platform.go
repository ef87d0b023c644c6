// Package platform reads the flat bundle lists of an installed runtime.
//
// An installation records its bundles in
// <config>/org.eclipse.equinox.simpleconfigurator/bundles.info and its source
// bundles in <config>/org.eclipse.equinox.source/source.info. Both files use
// the same line format:
//
//	#version=1
//	org.example.a,1.0.0,plugins/org.example.a_1.0.0.jar,4,false
//
// Relative locations are resolved against the installation home.
package platform

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/raphi011/tp/internal/bundle"
)

// Configuration-relative paths of the bundle lists.
var (
	BundlesInfo = filepath.Join("org.eclipse.equinox.simpleconfigurator", "bundles.info")
	SourceInfo  = filepath.Join("org.eclipse.equinox.source", "source.info")
)

// DefaultConfiguration is the configuration directory name under home.
const DefaultConfiguration = "configuration"

// Entry is one line of a bundle list.
type Entry struct {
	Info       bundle.Info
	StartLevel int
	Started    bool
}

// ReadBundles returns the code bundles of the installation at home.
// config may be empty to use home/configuration. A missing list returns
// (nil, nil).
func ReadBundles(home, config string) ([]bundle.Info, error) {
	return readList(home, config, BundlesInfo)
}

// ReadSourceBundles returns the source bundles of the installation at home.
func ReadSourceBundles(home, config string) ([]bundle.Info, error) {
	return readList(home, config, SourceInfo)
}

func readList(home, config, rel string) ([]bundle.Info, error) {
	if config == "" {
		config = filepath.Join(home, DefaultConfiguration)
	}
	f, err := os.Open(filepath.Join(config, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	entries, err := Parse(f, home)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Join(config, rel), err)
	}
	infos := make([]bundle.Info, len(entries))
	for i, e := range entries {
		infos[i] = e.Info
	}
	return infos, nil
}

// Parse reads bundle list lines. Comment and blank lines are skipped.
func Parse(r io.Reader, home string) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 fields, got %d", lineNo, len(fields))
		}

		e := Entry{
			Info: bundle.Info{
				SymbolicName: strings.TrimSpace(fields[0]),
				Version:      strings.TrimSpace(fields[1]),
				Location:     resolveLocation(home, strings.TrimSpace(fields[2])),
			},
			StartLevel: -1,
		}
		if len(fields) > 3 {
			if n, err := strconv.Atoi(strings.TrimSpace(fields[3])); err == nil {
				e.StartLevel = n
			}
		}
		if len(fields) > 4 {
			e.Started = strings.TrimSpace(fields[4]) == "true"
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func resolveLocation(home, loc string) string {
	if strings.HasPrefix(loc, "file:") {
		if u, err := url.Parse(loc); err == nil {
			if u.Path != "" {
				loc = u.Path
			} else {
				loc = u.Opaque
			}
		}
	}
	loc = filepath.FromSlash(loc)
	if !filepath.IsAbs(loc) {
		loc = filepath.Join(home, loc)
	}
	return loc
}

// VMArguments returns the JVM arguments listed after -vmargs in
// home/eclipse.ini, or nil when the file does not exist.
func VMArguments(home string) ([]string, error) {
	f, err := os.Open(filepath.Join(home, "eclipse.ini"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var args []string
	inVM := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "-vmargs" {
			inVM = true
			continue
		}
		if inVM {
			args = append(args, line)
		}
	}
	return args, sc.Err()
}
