package format

import (
	"fmt"
	"strings"
)

// Build identifies a licensee build whose package layout deviates from the
// stock engine. BuildDefault covers every package not matched by the table.
type Build int

const (
	BuildDefault Build = iota
	BuildUT2004
	BuildVengeance
	BuildBioShock
	BuildBioShockInfinite
	BuildMKKE
	BuildHMS
	BuildBatman
	BuildBatman2
	BuildBatman3
	BuildAHIT
)

var buildNames = map[Build]string{
	BuildDefault:          "Default",
	BuildUT2004:           "UT2004",
	BuildVengeance:        "Vengeance",
	BuildBioShock:         "BioShock",
	BuildBioShockInfinite: "BioShockInfinite",
	BuildMKKE:             "MKKE",
	BuildHMS:              "HMS",
	BuildBatman:           "Batman",
	BuildBatman2:          "Batman2",
	BuildBatman3:          "Batman3",
	BuildAHIT:             "AHIT",
}

func (b Build) String() string {
	if s, ok := buildNames[b]; ok {
		return s
	}
	return fmt.Sprintf("Build(%d)", int(b))
}

// ParseBuild returns the build with the given name, case-insensitively.
func ParseBuild(s string) (Build, bool) {
	for b, name := range buildNames {
		if strings.EqualFold(name, s) {
			return b, true
		}
	}
	return BuildDefault, false
}

// Family groups builds that share a serializer branch.
type Family int

const (
	FamilyNone Family = iota
	FamilyRSS
	FamilyHMS
	FamilyVengeance
)

// Family returns the serializer family b belongs to.
func (b Build) Family() Family {
	switch b {
	case BuildBatman, BuildBatman2, BuildBatman3:
		return FamilyRSS
	case BuildHMS:
		return FamilyHMS
	case BuildVengeance:
		return FamilyVengeance
	default:
		return FamilyNone
	}
}

// CustomSerializer reports whether the build's export table uses a branch
// serializer other than the stock one.
func (b Build) CustomSerializer() bool {
	switch b {
	case BuildBioShockInfinite, BuildMKKE:
		return true
	}
	return b.Family() == FamilyHMS
}

// buildRange matches packages by file version and licensee version.
// Bounds are inclusive. Unverified marks rows taken from legacy tables whose
// exact ranges have not been confirmed against real files.
type buildRange struct {
	Build                    Build
	MinVersion, MaxVersion   int
	MinLicensee, MaxLicensee int
	Unverified               bool
}

var buildTable = []buildRange{
	{Build: BuildUT2004, MinVersion: 128, MaxVersion: 128, MinLicensee: 29, MaxLicensee: 29},
	{Build: BuildVengeance, MinVersion: 129, MaxVersion: 130, MinLicensee: 27, MaxLicensee: 28, Unverified: true},
	{Build: BuildBioShock, MinVersion: 141, MaxVersion: 142, MinLicensee: 56, MaxLicensee: 56},
	{Build: BuildMKKE, MinVersion: 472, MaxVersion: 472, MinLicensee: 46, MaxLicensee: 46},
	{Build: BuildBatman, MinVersion: 576, MaxVersion: 576, MinLicensee: 21, MaxLicensee: 21},
	{Build: BuildBioShockInfinite, MinVersion: 727, MaxVersion: 727, MinLicensee: 75, MaxLicensee: 75},
	{Build: BuildBatman2, MinVersion: 805, MaxVersion: 805, MinLicensee: 101, MaxLicensee: 101},
	{Build: BuildBatman3, MinVersion: 807, MaxVersion: 807, MinLicensee: 138, MaxLicensee: 138},
	{Build: BuildAHIT, MinVersion: 877, MaxVersion: 893, MinLicensee: 5, MaxLicensee: 5},
}

// DetectBuild matches version and licensee against the known build table.
// HMS packages share version numbers with stock packages and can only be
// selected explicitly.
func DetectBuild(version, licensee int) Build {
	for _, r := range buildTable {
		if version >= r.MinVersion && version <= r.MaxVersion &&
			licensee >= r.MinLicensee && licensee <= r.MaxLicensee {
			return r.Build
		}
	}
	return BuildDefault
}

// Generation is the engine generation a file version belongs to.
type Generation int

const (
	UE1 Generation = iota + 1
	UE2
	UE3
)

func (g Generation) String() string {
	switch g {
	case UE1:
		return "UE1"
	case UE2:
		return "UE2"
	case UE3:
		return "UE3"
	}
	return fmt.Sprintf("Generation(%d)", int(g))
}

// Identity is the (version, licensee, build) triple that selects which
// layout and flag rules apply to a package.
type Identity struct {
	Version  int
	Licensee int
	Build    Build
}

// NewIdentity builds an Identity, detecting the build from the table.
func NewIdentity(version, licensee int) Identity {
	return Identity{Version: version, Licensee: licensee, Build: DetectBuild(version, licensee)}
}

// Generation returns the engine generation of the identity.
func (id Identity) Generation() Generation {
	switch {
	case id.Version >= VUE3:
		return UE3
	case id.Version >= VUE2:
		return UE2
	default:
		return UE1
	}
}

func (id Identity) String() string {
	return fmt.Sprintf("v%d/%d (%s, %s)", id.Version, id.Licensee, id.Build, id.Generation())
}

// ObjectFlagsEncoding describes how the export table stores object flags.
type ObjectFlagsEncoding int

const (
	// FlagsWhole32 is a single uint32.
	FlagsWhole32 ObjectFlagsEncoding = iota
	// FlagsSplit64 is two uint32 halves, high half first.
	FlagsSplit64
	// FlagsWhole64 is a single uint64 without the half swap.
	FlagsWhole64
)

// Size returns the number of bytes the encoding occupies.
func (e ObjectFlagsEncoding) Size() int {
	if e == FlagsWhole32 {
		return 4
	}
	return 8
}

func (e ObjectFlagsEncoding) String() string {
	switch e {
	case FlagsWhole32:
		return "uint32"
	case FlagsSplit64:
		return "uint32 hi + uint32 lo"
	case FlagsWhole64:
		return "uint64"
	}
	return "unknown"
}

// ObjectFlagsEncoding returns the encoding used by the identity's export table.
func (id Identity) ObjectFlagsEncoding() ObjectFlagsEncoding {
	switch {
	case id.Build == BuildBioShock && id.Licensee >= 40:
		return FlagsWhole64
	case id.Version >= VObjectFlagsToULONG:
		return FlagsSplit64
	default:
		return FlagsWhole32
	}
}

// CompactIndices reports whether object and name references use the
// variable-length compact index encoding.
func (id Identity) CompactIndices() bool {
	return id.Version < VIndexDeprecated
}
