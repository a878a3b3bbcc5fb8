// Package javaver parses and compares the two version encodings Temurin
// releases have used: the legacy 8uNNNbNN form of the 8 stream and the
// dotted form of streams 11 and later.
package javaver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/karvell/temurin-updater/internal/dist"
)

// Order is the outcome of comparing an installed version against an
// available one.
type Order int

const (
	SameOrOlder Order = iota
	Newer
)

func (o Order) String() string {
	if o == Newer {
		return "newer"
	}
	return "same-or-older"
}

// Version is one parsed version. The concrete variant is decided by the
// stream the string belongs to, never by the string alone: stream 8 is
// always Legacy, everything else always Modern.
type Version interface {
	fmt.Stringer
	version()
}

// Legacy is the 8-stream encoding, e.g. "8u462b08" → {8, 462, 8}.
type Legacy struct {
	Major  int
	Update int
	Build  int
}

func (Legacy) version() {}

func (v Legacy) String() string {
	return fmt.Sprintf("%du%db%d", v.Major, v.Update, v.Build)
}

// Modern is the dotted encoding of streams 11+, e.g. "17.0.13+11" →
// {17, 0, 13, [11]}. The build segment may itself be dotted ("9.1"), so it
// is kept as a component list.
type Modern struct {
	Major int
	Minor int
	Patch int
	Build []int
}

func (Modern) version() {}

func (v Modern) String() string {
	parts := make([]string, len(v.Build))
	for i, b := range v.Build {
		parts[i] = strconv.Itoa(b)
	}
	return fmt.Sprintf("%d.%d.%d+%s", v.Major, v.Minor, v.Patch, strings.Join(parts, "."))
}

// ParseError reports a version string that does not match the stream's
// encoding. It is always recoverable: callers log it and skip the update
// decision for the affected component.
type ParseError struct {
	Raw    string
	Stream dist.Stream
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as a stream %s version", e.Raw, e.Stream)
}

var (
	legacyPattern = regexp.MustCompile(`^(\d+)u(\d+)b(\d+)$`)
	// "_" and "+" are equivalent build separators: asset names use "_",
	// release tags use "+".
	modernPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)[_+](\d+(?:\.\d+)*)$`)
)

// Parse parses raw according to the stream's encoding. Components may carry
// leading zeros ("b08"); they parse as plain numbers.
func Parse(raw string, stream dist.Stream) (Version, error) {
	raw = strings.TrimSpace(raw)

	if stream.Legacy() {
		m := legacyPattern.FindStringSubmatch(raw)
		if m == nil {
			return nil, &ParseError{Raw: raw, Stream: stream}
		}
		return Legacy{
			Major:  mustInt(m[1]),
			Update: mustInt(m[2]),
			Build:  mustInt(m[3]),
		}, nil
	}

	m := modernPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, &ParseError{Raw: raw, Stream: stream}
	}
	buildParts := strings.Split(m[4], ".")
	build := make([]int, len(buildParts))
	for i, p := range buildParts {
		build[i] = mustInt(p)
	}
	return Modern{
		Major: mustInt(m[1]),
		Minor: mustInt(m[2]),
		Patch: mustInt(m[3]),
		Build: build,
	}, nil
}

// mustInt converts a digits-only capture group. The patterns guarantee the
// input is numeric, so a failure here is a programming error.
func mustInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Sprintf("javaver: non-numeric capture %q", s))
	}
	return n
}

// Compare reports whether available is strictly newer than installed.
// Both versions must be the variant the stream dictates; a mismatch is an
// error, not an ordering.
func Compare(installed, available Version, stream dist.Stream) (Order, error) {
	switch inst := installed.(type) {
	case Legacy:
		avail, ok := available.(Legacy)
		if !ok {
			return SameOrOlder, fmt.Errorf("comparing legacy %s against %T", inst, available)
		}
		if !stream.Legacy() {
			return SameOrOlder, fmt.Errorf("legacy versions do not belong to stream %s", stream)
		}
		return compareLegacy(inst, avail), nil
	case Modern:
		avail, ok := available.(Modern)
		if !ok {
			return SameOrOlder, fmt.Errorf("comparing modern %s against %T", inst, available)
		}
		if stream.Legacy() {
			return SameOrOlder, fmt.Errorf("modern versions do not belong to stream %s", stream)
		}
		return compareModern(inst, avail), nil
	}
	return SameOrOlder, fmt.Errorf("unsupported version type %T", installed)
}

// compareLegacy orders on (update, build). Major is deliberately not
// consulted: callers have already filtered by stream.
func compareLegacy(installed, available Legacy) Order {
	if available.Update > installed.Update {
		return Newer
	}
	if available.Update == installed.Update && available.Build > installed.Build {
		return Newer
	}
	return SameOrOlder
}

// compareModern orders component-wise on (major, minor, patch, build...).
// When every shared position is equal, the version with strictly more
// trailing components is the newer one ("17.0.9+9.1" > "17.0.9+9").
func compareModern(installed, available Modern) Order {
	a := installed.components()
	b := available.components()
	for i := 0; i < len(a) && i < len(b); i++ {
		if b[i] > a[i] {
			return Newer
		}
		if b[i] < a[i] {
			return SameOrOlder
		}
	}
	if len(b) > len(a) {
		return Newer
	}
	return SameOrOlder
}

func (v Modern) components() []int {
	out := make([]int, 0, 3+len(v.Build))
	out = append(out, v.Major, v.Minor, v.Patch)
	return append(out, v.Build...)
}
