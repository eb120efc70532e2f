package taxonomy

import "strings"

// Dashboard tab names that are not barangays.
const (
	AllBarangays    = "All Barangay"
	UnknownBarangay = "Unknown"
)

// DefaultBarangays is the municipality's barangay list.
var DefaultBarangays = []string{
	"Bagacay", "Central", "Cogon", "Dancalan", "Dapdap", "Lalud", "Looban",
	"Mabuhay", "Madlawon", "Poctol", "Porog", "Sabang", "Salvacion",
	"San Antonio", "San Bernardo", "San Francisco", "Kapangihan", "San Isidro",
	"San Jose", "San Rafael", "San Roque", "Buhang", "San Vicente",
	"Santa Barbara", "Sapngan", "Tinampo",
}

// Barangays is the directory of known barangay names.
type Barangays struct {
	names []string
	known map[string]struct{}
}

// NewBarangays builds a directory. An empty list falls back to DefaultBarangays.
func NewBarangays(names []string) *Barangays {
	if len(names) == 0 {
		names = DefaultBarangays
	}
	b := &Barangays{known: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := b.known[n]; dup {
			continue
		}
		b.known[n] = struct{}{}
		b.names = append(b.names, n)
	}
	return b
}

// Known reports whether name is in the directory.
func (b *Barangays) Known(name string) bool {
	_, ok := b.known[name]
	return ok
}

// Group returns the tab a message with the given barangay is listed under.
func (b *Barangays) Group(name string) string {
	if b.Known(name) {
		return name
	}
	return UnknownBarangay
}

// Names returns the directory in its configured order.
func (b *Barangays) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}
