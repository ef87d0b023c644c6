package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PluginConverter converts plugin.xml and fragment.xml descriptors into
// manifest headers.
type PluginConverter struct{}

// legacyDescriptor covers both <plugin> and <fragment> root elements.
type legacyDescriptor struct {
	XMLName     xml.Name
	ID          string          `xml:"id,attr"`
	Version     string          `xml:"version,attr"`
	Name        string          `xml:"name,attr"`
	HostID      string          `xml:"plugin-id,attr"`
	HostVersion string          `xml:"plugin-version,attr"`
	Libraries   []legacyLibrary `xml:"runtime>library"`
	Imports     []legacyImport  `xml:"requires>import"`
}

type legacyLibrary struct {
	Name string `xml:"name,attr"`
}

type legacyImport struct {
	Plugin   string `xml:"plugin,attr"`
	Version  string `xml:"version,attr"`
	Optional string `xml:"optional,attr"`
}

// Convert reads dir/plugin.xml (or dir/fragment.xml) and returns headers
// equivalent to what an OSGi manifest would declare.
func (PluginConverter) Convert(dir string) (Headers, error) {
	path := LegacyDescriptor(dir)
	if path == "" {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoManifest)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d legacyDescriptor
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	// Descriptors without an id only contribute extensions (3.x style).
	if d.ID == "" {
		return nil, fmt.Errorf("%s has no id: %w", filepath.Base(path), ErrNoManifest)
	}

	h := Headers{
		BundleManifestVersion: "2",
		BundleSymbolicName:    d.ID,
	}
	if d.Version != "" {
		h[BundleVersion] = d.Version
	}
	if d.Name != "" {
		h[BundleName] = d.Name
	}

	if len(d.Libraries) > 0 {
		libs := make([]string, 0, len(d.Libraries))
		for _, l := range d.Libraries {
			if l.Name != "" {
				libs = append(libs, l.Name)
			}
		}
		if len(libs) > 0 {
			h[BundleClassPath] = strings.Join(libs, ",")
		}
	}

	if d.XMLName.Local == "fragment" && d.HostID != "" {
		host := d.HostID
		if d.HostVersion != "" {
			host += fmt.Sprintf(";bundle-version=%q", d.HostVersion)
		}
		h[FragmentHost] = host
	}

	if len(d.Imports) > 0 {
		reqs := make([]string, 0, len(d.Imports))
		for _, imp := range d.Imports {
			if imp.Plugin == "" {
				continue
			}
			req := imp.Plugin
			if imp.Version != "" {
				req += fmt.Sprintf(";bundle-version=%q", imp.Version)
			}
			if imp.Optional == "true" {
				req += ";resolution:=optional"
			}
			reqs = append(reqs, req)
		}
		if len(reqs) > 0 {
			h[RequireBundle] = strings.Join(reqs, ",")
		}
	}

	return h, nil
}
