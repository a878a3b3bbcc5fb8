//go:build !windows

package discovery

import "fmt"

// Registry scans the Windows uninstall keys. On other platforms it only
// reports that discovery is unavailable.
type Registry struct{}

var _ Scanner = Registry{}

func (Registry) ListInstalled(publisher string) ([]Record, error) {
	return nil, fmt.Errorf("installed-program discovery requires Windows")
}
