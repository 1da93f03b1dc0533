// Package location decides which hospital interior a frame shows. Three tiers
// are consulted in order: statistics learned from labeled samples, hand-tuned
// color rules, and OCR of the minimap street names.
package location

import "strings"

// Location is a hospital display name.
type Location string

const (
	Unknown Location = ""
	ELSH    Location = "ELSH"
	Sandy   Location = "Sandy Shores"
	Paleto  Location = "Paleto Bay"
)

// Known lists the hospitals in rule-scorer order.
var Known = []Location{ELSH, Sandy, Paleto}

// Key returns the short name used by the knowledge base and the rule scorer.
func (l Location) Key() string {
	switch l {
	case ELSH:
		return "ELSH"
	case Sandy:
		return "Sandy"
	case Paleto:
		return "Paleto"
	}
	return "Unsorted"
}

// FromKey maps a knowledge-base key, or a display name, to a location.
func FromKey(key string) Location {
	for _, l := range Known {
		if l.Key() == key || string(l) == key {
			return l
		}
	}
	return Unknown
}

// FromName maps a display name to a location.
func FromName(name string) Location {
	for _, l := range Known {
		if string(l) == name {
			return l
		}
	}
	return Unknown
}

// folderAliases map labeled folder names, in Latin or Cyrillic, to locations.
var folderAliases = []struct {
	alias string
	loc   Location
}{
	{"elsh", ELSH},
	{"элш", ELSH},
	{"sandy", Sandy},
	{"санди", Sandy},
	{"paleto", Paleto},
	{"палето", Paleto},
}

// FromFolder guesses a location from a folder name by substring.
func FromFolder(name string) Location {
	name = strings.ToLower(name)
	for _, a := range folderAliases {
		if strings.Contains(name, a.alias) {
			return a.loc
		}
	}
	return Unknown
}
