package target

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"github.com/raphi011/tp/internal/bundle"
)

// Definition is a target platform: environment, launcher arguments and an
// ordered list of containers. Containers belong to one definition.
type Definition struct {
	Name        string
	Description string

	// Environment. Empty values mean the running platform.
	OS   string
	WS   string
	Arch string
	NL   string

	ProgramArgs string
	VMArgs      string

	Containers []Container

	handle Handle
}

// Handle returns the definition's identity.
func (d *Definition) Handle() Handle {
	return d.handle
}

// ResolveBundles returns the code bundles of every container, in container
// order, each filtered by the container's restrictions. A failing container
// aborts the call.
func (d *Definition) ResolveBundles(ctx context.Context) ([]bundle.Resolved, error) {
	return d.resolve(ctx, false)
}

// ResolveSourceBundles returns the source bundles of every container.
func (d *Definition) ResolveSourceBundles(ctx context.Context) ([]bundle.Resolved, error) {
	return d.resolve(ctx, true)
}

func (d *Definition) resolve(ctx context.Context, source bool) ([]bundle.Resolved, error) {
	var all []bundle.Resolved
	for _, c := range d.Containers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			got []bundle.Resolved
			err error
		)
		if source {
			got, err = c.ResolveSourceBundles(ctx, d)
		} else {
			got, err = c.ResolveBundles(ctx, d)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		all = append(all, bundle.Restrict(got, c.Restrictions())...)
	}
	return all, nil
}

// Environment returns the os, ws and arch of the definition, falling back
// to the running platform for unset values.
func (d *Definition) Environment() map[string]string {
	env := map[string]string{"os": d.OS, "ws": d.WS, "arch": d.Arch}
	if env["os"] == "" {
		env["os"] = RunningOS()
	}
	if env["ws"] == "" {
		env["ws"] = defaultWS(env["os"])
	}
	if env["arch"] == "" {
		env["arch"] = RunningArch()
	}
	return env
}

// environmentProperty renders Environment as a profile property value.
func (d *Definition) environmentProperty() string {
	env := d.Environment()
	return fmt.Sprintf("osgi.os=%s,osgi.ws=%s,osgi.arch=%s", env["os"], env["ws"], env["arch"])
}

// ProfileID returns the id of the provisioning profile bound to the
// definition. It is derived from the handle memento.
func (d *Definition) ProfileID() string {
	key := d.Name
	if d.handle != nil {
		key = d.handle.Memento()
	}
	sum := sha256.Sum256([]byte(key))
	return "target-" + hex.EncodeToString(sum[:8])
}

// ContentEqual reports whether o has the same settings and containers.
// Names, descriptions and handles are ignored.
func (d *Definition) ContentEqual(o *Definition) bool {
	if d.OS != o.OS || d.WS != o.WS || d.Arch != o.Arch || d.NL != o.NL ||
		d.ProgramArgs != o.ProgramArgs || d.VMArgs != o.VMArgs ||
		len(d.Containers) != len(o.Containers) {
		return false
	}
	for i, c := range d.Containers {
		if !c.Equal(o.Containers[i]) {
			return false
		}
	}
	return true
}

// Classpath returns the locations of the resolved code bundles that have
// no problem, in order.
func Classpath(bundles []bundle.Resolved) []string {
	var out []string
	for _, b := range bundles {
		if b.Source || !b.Status.IsOK() || b.Info.Location == "" {
			continue
		}
		out = append(out, b.Info.Location)
	}
	return out
}

// RunningOS returns the OSGi name of the running operating system.
func RunningOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "macosx"
	case "windows":
		return "win32"
	default:
		return runtime.GOOS
	}
}

// RunningArch returns the OSGi name of the running architecture.
func RunningArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "aarch64"
	default:
		return runtime.GOARCH
	}
}

func defaultWS(os string) string {
	switch os {
	case "win32":
		return "win32"
	case "macosx":
		return "cocoa"
	case "linux", "freebsd", "solaris":
		return "gtk"
	default:
		return ""
	}
}

func (d *Definition) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.handle != nil {
		fmt.Fprintf(&b, " (%s)", d.handle.Memento())
	}
	return b.String()
}
