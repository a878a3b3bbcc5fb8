// Package dist holds the vocabulary shared by every component: the major
// release streams Temurin publishes, the two package types, and the two
// Windows architectures.
package dist

import (
	"fmt"
	"strings"
)

// Stream is a major version line. Streams are self-contained: an installed
// "17" is only ever updated to a newer "17", never to "21".
type Stream string

const (
	Stream8  Stream = "8"
	Stream11 Stream = "11"
	Stream17 Stream = "17"
	Stream21 Stream = "21"
)

// KnownStreams lists the streams with a published upstream feed, oldest first.
var KnownStreams = []Stream{Stream8, Stream11, Stream17, Stream21}

// ParseStream validates a stream identifier against the known set.
func ParseStream(s string) (Stream, error) {
	st := Stream(strings.TrimSpace(s))
	if st.Known() {
		return st, nil
	}
	return "", fmt.Errorf("unknown stream %q (known: %s)", s, joinStreams(KnownStreams))
}

// Known reports whether the stream has a published upstream feed.
func (s Stream) Known() bool {
	for _, known := range KnownStreams {
		if s == known {
			return true
		}
	}
	return false
}

// Legacy reports whether the stream uses the 8uNNNbNN version encoding.
func (s Stream) Legacy() bool {
	return s == Stream8
}

func (s Stream) String() string {
	return string(s)
}

func joinStreams(streams []Stream) string {
	names := make([]string, len(streams))
	for i, s := range streams {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// PackageType distinguishes the runtime-only package from the full
// development kit.
type PackageType int

const (
	Runtime     PackageType = iota // JRE
	Development                    // JDK
)

// ParsePackageType accepts both the short names users type and the
// longer forms.
func ParsePackageType(s string) (PackageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jre", "runtime":
		return Runtime, nil
	case "jdk", "development":
		return Development, nil
	}
	return Runtime, fmt.Errorf("unknown package type %q (want jre or jdk)", s)
}

// String returns the marketing short name as it appears in display names.
func (t PackageType) String() string {
	if t == Development {
		return "JDK"
	}
	return "JRE"
}

// AssetToken returns the lower-cased token embedded in installer asset names.
func (t PackageType) AssetToken() string {
	return strings.ToLower(t.String())
}

// Arch is the processor architecture of an installed or installable package.
type Arch string

const (
	ArchX64 Arch = "x64"
	ArchX86 Arch = "x86"
)

// ParseArch validates an architecture name.
func ParseArch(s string) (Arch, error) {
	switch Arch(strings.ToLower(strings.TrimSpace(s))) {
	case ArchX64:
		return ArchX64, nil
	case ArchX86:
		return ArchX86, nil
	}
	return "", fmt.Errorf("unknown architecture %q (want x64 or x86)", s)
}

// FeedToken returns the architecture token used in upstream asset names.
// The token is stream-agnostic: every stream publishes under the same pair.
func (a Arch) FeedToken() string {
	if a == ArchX86 {
		return "x86-32_windows"
	}
	return "x64_windows"
}

func (a Arch) String() string {
	return string(a)
}
