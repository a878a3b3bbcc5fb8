package updater

import (
	"fmt"
	"regexp"

	"github.com/karvell/temurin-updater/internal/discovery"
	"github.com/karvell/temurin-updater/internal/dist"
	"github.com/karvell/temurin-updater/internal/javaver"
	"github.com/karvell/temurin-updater/internal/logging"
)

// Display-name templates Temurin MSIs register under. The legacy form
// writes the build as "-b08" while asset names write "b08"; the version
// string is rebuilt before parsing.
var (
	legacyDisplay = regexp.MustCompile(`^Eclipse Temurin (JRE|JDK) with Hotspot (\d+)u(\d+)-b(\d+) \((x64|x86)\)$`)
	modernDisplay = regexp.MustCompile(`^Eclipse Temurin (JRE|JDK) with Hotspot ((\d+)\.\d+\.\d+[_+]\d+(?:\.\d+)*) \((x64|x86)\)$`)
)

// DeriveComponents turns installed-program records into components the
// update pass can act on. Records that do not match either display-name
// template, or that name a stream without a published feed, are logged
// and dropped; a machine full of unrelated software must never abort a
// pass.
func DeriveComponents(records []discovery.Record, log *logging.Logger) []Component {
	var comps []Component
	for _, rec := range records {
		c, err := deriveComponent(rec)
		if err != nil {
			log.Debugf("skipping %q: %v", rec.DisplayName, err)
			continue
		}
		log.Debugf("detected %s (version %s, product %s)", c.DisplayName, c.Version, c.ProductCode)
		comps = append(comps, c)
	}
	return comps
}

func deriveComponent(rec discovery.Record) (Component, error) {
	if m := legacyDisplay.FindStringSubmatch(rec.DisplayName); m != nil {
		return buildComponent(rec, m[1], dist.Stream(m[2]), fmt.Sprintf("%su%sb%s", m[2], m[3], m[4]), m[5], true)
	}
	if m := modernDisplay.FindStringSubmatch(rec.DisplayName); m != nil {
		return buildComponent(rec, m[1], dist.Stream(m[3]), m[2], m[4], false)
	}
	return Component{}, fmt.Errorf("display name does not match a Temurin template")
}

func buildComponent(rec discovery.Record, typeName string, stream dist.Stream, rawVersion, archName string, legacy bool) (Component, error) {
	if !stream.Known() {
		return Component{}, fmt.Errorf("stream %s has no published feed", stream)
	}
	if stream.Legacy() != legacy {
		return Component{}, fmt.Errorf("stream %s does not use this version encoding", stream)
	}

	pkgType, err := dist.ParsePackageType(typeName)
	if err != nil {
		return Component{}, err
	}
	arch, err := dist.ParseArch(archName)
	if err != nil {
		return Component{}, err
	}
	ver, err := javaver.Parse(rawVersion, stream)
	if err != nil {
		return Component{}, err
	}
	if rec.ProductCode == "" {
		return Component{}, fmt.Errorf("record has no product code")
	}

	return Component{
		Stream:      stream,
		Type:        pkgType,
		Arch:        arch,
		Version:     ver,
		DisplayName: rec.DisplayName,
		ProductCode: rec.ProductCode,
	}, nil
}
