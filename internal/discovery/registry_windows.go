//go:build windows

package discovery

import (
	"strings"

	"golang.org/x/sys/windows/registry"
)

// Uninstall hives holding installed-program entries.
var uninstallPaths = []struct {
	root registry.Key
	path string
}{
	// 64-bit applications
	{registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
	// 32-bit applications on 64-bit Windows
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
}

// Registry scans the Windows uninstall keys in both registry views.
type Registry struct{}

var _ Scanner = Registry{}

// ListInstalled returns entries whose Publisher value equals publisher,
// compared case-insensitively. An empty publisher returns everything.
func (Registry) ListInstalled(publisher string) ([]Record, error) {
	var records []Record
	seen := make(map[string]bool)

	for _, hive := range uninstallPaths {
		items, err := scanUninstallKey(hive.root, hive.path, publisher)
		if err != nil {
			// A view can be absent (32-bit Windows has no WOW6432Node).
			continue
		}
		for _, r := range items {
			key := r.DisplayName + "|" + r.DisplayVersion
			if !seen[key] {
				seen[key] = true
				records = append(records, r)
			}
		}
	}

	return records, nil
}

func scanUninstallKey(root registry.Key, path, publisher string) ([]Record, error) {
	key, err := registry.OpenKey(root, path, registry.READ)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	subkeys, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, name := range subkeys {
		subkey, err := registry.OpenKey(key, name, registry.READ)
		if err != nil {
			continue
		}
		rec, vendor := readUninstallEntry(subkey, name)
		subkey.Close()

		if rec.DisplayName == "" {
			continue
		}
		if publisher != "" && !strings.EqualFold(vendor, publisher) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// readUninstallEntry reads one program entry. For MSI products the subkey
// name is the product code GUID msiexec /x expects.
func readUninstallEntry(key registry.Key, subkeyName string) (Record, string) {
	rec := Record{ProductCode: subkeyName}
	rec.DisplayName, _ = readStringValue(key, "DisplayName")
	rec.DisplayVersion, _ = readStringValue(key, "DisplayVersion")
	rec.InstallLocation, _ = readStringValue(key, "InstallLocation")
	vendor, _ := readStringValue(key, "Publisher")
	return rec, vendor
}

func readStringValue(key registry.Key, name string) (string, error) {
	val, _, err := key.GetStringValue(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(val), nil
}
