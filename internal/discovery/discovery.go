// Package discovery lists installed programs from the platform's
// installation database.
package discovery

// Record is one installed-program entry.
type Record struct {
	DisplayName     string
	DisplayVersion  string
	ProductCode     string
	InstallLocation string
}

// Scanner lists installed programs, optionally filtered by publisher.
type Scanner interface {
	ListInstalled(publisher string) ([]Record, error)
}
