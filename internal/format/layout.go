package format

// Cond gates a rule on the package identity. Zero values are wildcards:
// MinVersion 0 and MaxVersion 0 place no bound, an empty Builds list
// matches every build, and Family FamilyNone matches every family.
type Cond struct {
	MinVersion  int // inclusive
	MaxVersion  int // inclusive
	MinLicensee int // inclusive
	Builds      []Build
	NotBuilds   []Build
	Family      Family
	Generation  Generation
	// ExactVersion matches a single file version when non-zero.
	ExactVersion int
	// NotVersion excludes a single file version when non-zero.
	NotVersion int
}

// Match reports whether id satisfies every bound of c.
func (c Cond) Match(id Identity) bool {
	if c.MinVersion != 0 && id.Version < c.MinVersion {
		return false
	}
	if c.MaxVersion != 0 && id.Version > c.MaxVersion {
		return false
	}
	if c.ExactVersion != 0 && id.Version != c.ExactVersion {
		return false
	}
	if c.NotVersion != 0 && id.Version == c.NotVersion {
		return false
	}
	if c.MinLicensee != 0 && id.Licensee < c.MinLicensee {
		return false
	}
	if c.Family != FamilyNone && id.Build.Family() != c.Family {
		return false
	}
	if c.Generation != 0 && id.Generation() != c.Generation {
		return false
	}
	if len(c.Builds) > 0 && !containsBuild(c.Builds, id.Build) {
		return false
	}
	if containsBuild(c.NotBuilds, id.Build) {
		return false
	}
	return true
}

func containsBuild(list []Build, b Build) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}

// Region is a binary area walked by a layout plan.
type Region int

const (
	// RegionHeader starts at VersionOffset and ends before the package flags.
	RegionHeader Region = iota + 1
	// RegionExport starts at an export table entry and ends before its object flags.
	RegionExport
)

func (r Region) String() string {
	switch r {
	case RegionHeader:
		return "header"
	case RegionExport:
		return "export entry"
	}
	return "unknown"
}

// StepKind is the primitive a step performs on the stream.
type StepKind int

const (
	// StepSkip advances by a fixed number of bytes.
	StepSkip StepKind = iota + 1
	// StepString consumes a length-prefixed (or NUL-terminated) string.
	StepString
	// StepIndex consumes an object reference (compact index or int32).
	StepIndex
	// StepName consumes a name reference.
	StepName
)

func (k StepKind) String() string {
	switch k {
	case StepSkip:
		return "skip"
	case StepString:
		return "string"
	case StepIndex:
		return "index"
	case StepName:
		return "name"
	}
	return "unknown"
}

// Rule is one row of the capability table: a field of a region, the step
// that consumes it, and the identities it applies to.
type Rule struct {
	Region Region
	Field  string
	Step   StepKind
	Size   int // bytes for StepSkip
	When   Cond
	// Unverified marks layout knowledge carried over from legacy tables
	// without confirmation against real packages of that build.
	Unverified bool
}

// layoutRules lists, in stream order, every field that precedes a flag word
// in its region. The order of rows is the order in which they are consumed.
var layoutRules = []Rule{
	{Region: RegionHeader, Field: "Version", Step: StepSkip, Size: 4},
	{Region: RegionHeader, Field: "BioShockInfiniteUnknown", Step: StepSkip, Size: 4,
		When: Cond{Builds: []Build{BuildBioShockInfinite}}},
	{Region: RegionHeader, Field: "MKKEUnknown", Step: StepSkip, Size: 8,
		When: Cond{Builds: []Build{BuildMKKE}}},
	{Region: RegionHeader, Field: "HMSExtended", Step: StepSkip, Size: 16,
		When: Cond{Family: FamilyHMS, MinLicensee: 181}, Unverified: true},
	{Region: RegionHeader, Field: "HMSUnknown", Step: StepSkip, Size: 4,
		When: Cond{Family: FamilyHMS, MinLicensee: 55}, Unverified: true},
	{Region: RegionHeader, Field: "HeaderSize", Step: StepSkip, Size: 4,
		When: Cond{MinVersion: VHeaderSize}},
	{Region: RegionHeader, Field: "FolderName", Step: StepString,
		When: Cond{MinVersion: VFolderName}},

	{Region: RegionExport, Field: "Class", Step: StepIndex},
	{Region: RegionExport, Field: "Super", Step: StepIndex},
	{Region: RegionExport, Field: "Outer", Step: StepSkip, Size: 4},
	{Region: RegionExport, Field: "BioShockUnknown", Step: StepSkip, Size: 4,
		When: Cond{Builds: []Build{BuildBioShock}, MinVersion: 132}},
	{Region: RegionExport, Field: "ObjectName", Step: StepName},
	{Region: RegionExport, Field: "Archetype", Step: StepSkip, Size: 4,
		When: Cond{MinVersion: VArchetype}},
	{Region: RegionExport, Field: "RSSUnknown", Step: StepSkip, Size: 4,
		When: Cond{Family: FamilyRSS}},
}

// Plan returns, in stream order, the rules of region that apply to id.
func Plan(region Region, id Identity) []Rule {
	var out []Rule
	for _, r := range layoutRules {
		if r.Region == region && r.When.Match(id) {
			out = append(out, r)
		}
	}
	return out
}

// Rules returns every rule of region regardless of identity.
func Rules(region Region) []Rule {
	var out []Rule
	for _, r := range layoutRules {
		if r.Region == region {
			out = append(out, r)
		}
	}
	return out
}

// HeaderPlan returns the header rules that apply to id.
func HeaderPlan(id Identity) []Rule { return Plan(RegionHeader, id) }

// ExportPlan returns the export entry rules that apply to id.
func ExportPlan(id Identity) []Rule { return Plan(RegionExport, id) }
