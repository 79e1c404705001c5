package node

import (
	"github.com/joshuapare/upkflags/internal/format"
)

// FlagDef declares one flag of a word: its name, its mask and the packages
// it exists in.
type FlagDef struct {
	Name        string
	Mask        uint64
	When        format.Cond
	Unverified  bool
	Description string
}

func def(name string, mask uint64) FlagDef { return FlagDef{Name: name, Mask: mask} }

func (d FlagDef) when(c format.Cond) FlagDef {
	d.When = c
	return d
}

func (d FlagDef) unverified() FlagDef {
	d.Unverified = true
	return d
}

func (d FlagDef) describe(s string) FlagDef {
	d.Description = s
	return d
}

// Group is a run of flags shown under one header. An empty Header adds no
// header property.
type Group struct {
	Header string
	When   format.Cond
	Flags  []FlagDef
}

// Table lists the flags of one word.
type Table struct {
	// Prefix is prepended to flag names to form identifiers.
	Prefix string
	// HeaderPrefix is prepended to group headers.
	HeaderPrefix string
	Groups       []Group
}

// Identifier returns the property identifier of flag name.
func (t *Table) Identifier(name string) string { return t.Prefix + "." + name }

// HeaderIdentifier returns the identifier of a group header.
func (t *Table) HeaderIdentifier(header string) string { return t.HeaderPrefix + "." + header }

// ResolvedGroup is a group narrowed to one package identity.
type ResolvedGroup struct {
	Header string
	Flags  []FlagDef
}

// Skipped is a flag dropped because an earlier flag of the word already
// uses its mask.
type Skipped struct {
	Flag FlagDef
	By   FlagDef
}

// Resolve returns the groups and flags of t that apply to id. Groups left
// without flags are dropped.
func (t *Table) Resolve(id format.Identity) ([]ResolvedGroup, []Skipped) {
	var groups []ResolvedGroup
	var skipped []Skipped
	used := map[uint64]FlagDef{}
	for _, g := range t.Groups {
		if !g.When.Match(id) {
			continue
		}
		rg := ResolvedGroup{Header: g.Header}
		for _, d := range g.Flags {
			if !d.When.Match(id) {
				continue
			}
			if prev, ok := used[d.Mask]; ok && d.Mask != 0 {
				skipped = append(skipped, Skipped{Flag: d, By: prev})
				continue
			}
			used[d.Mask] = d
			rg.Flags = append(rg.Flags, d)
		}
		if len(rg.Flags) > 0 {
			groups = append(groups, rg)
		}
	}
	return groups, skipped
}

const hi = format.HighShift

var (
	ue3Only   = format.Cond{Generation: format.UE3}
	ut2004    = format.Cond{ExactVersion: 128}
	notAHIT   = format.Cond{NotBuilds: []format.Build{format.BuildAHIT}}
	onlyAHIT  = format.Cond{Builds: []format.Build{format.BuildAHIT}}
	vengeance = format.Cond{Family: format.FamilyVengeance}
)

// PackageFlagsTable covers the summary's package flags.
var PackageFlagsTable = &Table{
	Prefix: "Package.PackageFlags",
	Groups: []Group{{Flags: []FlagDef{
		def("AllowDownload", 0x00000001),
		def("ClientOptional", 0x00000002),
		def("ServerSideOnly", 0x00000004),
		def("Encrypted", 0x00000010).when(format.Cond{Generation: format.UE1}),
		def("Official", 0x80000000).when(format.Cond{Generation: format.UE2}).unverified(),
		def("Cooked", 0x00000008).when(ue3Only),
		def("ContainsMap", 0x00020000).when(ue3Only),
		def("ContainsScript", 0x00200000).when(ue3Only),
		def("ContainsDebugData", 0x00400000).when(ue3Only),
		def("StrippedSource", 0x40000000).when(ue3Only),
	}}},
}

// ObjectFlagsTable covers the export table's object flags.
var ObjectFlagsTable = &Table{
	Prefix:       "Object.ObjectFlags",
	HeaderPrefix: "Object.ObjectFlags.Header",
	Groups: []Group{
		{Header: "General", Flags: []FlagDef{
			def("Transactional", 0x00000001).describe("Recorded in the undo history."),
			def("Obsolete", 0x00000020).when(format.Cond{MinVersion: format.VUE3}),
			def("SourceModified", 0x00000020).when(format.Cond{MaxVersion: format.VUE3 - 1}),
			def("Public", 0x00000004).describe("Visible to other packages."),
			def("Protected", 0x100<<hi).when(format.Cond{MinVersion: format.VObjectFlagsToULONG}),
			def("Protected", 0x00000040).when(format.Cond{MaxVersion: format.VObjectFlagsToULONG - 1}).unverified(),
			def("Private", 0x00000080),
			def("PerObjectLocalized", 0x00000100).when(format.Cond{NotVersion: 128}),
			def("Standalone", 0x00080000).describe("Kept for editing even when unreferenced."),
			def("HasStack", 0x02000000),
			def("Native", 0x04000000),
			def("Final", 0x80<<hi),
			def("DefaultObject", 0x200<<hi).describe("Default template of its class."),
			def("ArchetypeObject", 0x400<<hi),
			def("RemappedName", 0x800<<hi),
			def("LocalizedResource", 0x0008000000000000),
		}},
		{Header: "LoadRules", Flags: []FlagDef{
			def("LoadForClient", 0x00010000),
			def("LoadForServer", 0x00020000),
			def("LoadForEdit", 0x00040000),
			def("NotForClient", 0x00100000),
			def("NotForServer", 0x00200000),
			def("NotForEdit", 0x00400000),
		}},
		{Header: "UT2004", When: ut2004, Flags: []FlagDef{
			def("UT2004_Automated", 0x00000100).unverified(),
		}},
		{Header: "Vengeance", When: vengeance, Flags: []FlagDef{
			def("VG_Unnamed", 0x00000008).unverified(),
		}},
	},
}

// StructFlagsTable covers StructFlags of structs and script structs.
var StructFlagsTable = &Table{
	Prefix: "Struct.StructFlags",
	Groups: []Group{{Flags: []FlagDef{
		def("Native", 0x00000001),
		def("Export", 0x00000002),
		def("Long", 0x00000004).when(format.Cond{MaxVersion: format.VLongStructFlag - 1}),
		def("HasComponents", 0x00000004).when(format.Cond{MinVersion: format.VLongStructFlag}),
		def("Init", 0x00000008).when(format.Cond{MaxVersion: format.VStructTransient - 1}),
		def("Transient", 0x00000008).when(format.Cond{MinVersion: format.VStructTransient}),
		def("Atomic", 0x00000010),
		def("Immutable", 0x00000020),
		def("ImmutableWhenCooked", 0x00000080),
		def("AtomicWhenCooked", 0x00000100),
	}}},
}

// StateFlagsTable covers StateFlags of states and classes.
var StateFlagsTable = &Table{
	Prefix: "State.StateFlags",
	Groups: []Group{{Flags: []FlagDef{
		def("Editable", 0x00000001),
		def("Auto", 0x00000002),
		def("Simulated", 0x00000004),
	}}},
}

// ClassFlagsTable covers ClassFlags.
var ClassFlagsTable = &Table{
	Prefix:       "Class.ClassFlags",
	HeaderPrefix: "Class.Header",
	Groups: []Group{
		{Header: "General", Flags: []FlagDef{
			def("Abstract", 0x00000001),
			def("Transient", 0x00000008),
			def("SafeReplace", 0x00000040),
			def("PerObjectConfig", 0x00000400),
			def("Interface", 0x00004000).when(format.Cond{MinVersion: format.VInterfaceClassFlag}),
			def("Deprecated", 0x02000000),
			def("PerObjectLocalized", 0x40000000),
		}},
		{Header: "Native", Flags: []FlagDef{
			def("Native", 0x00000080),
			def("NoExport", 0x00000100),
			def("NativeReplication", 0x00000800),
			def("ExportStructs", 0x00004000).when(format.Cond{MaxVersion: format.VInterfaceClassFlag - 1}),
			def("Intrinsic", 0x10000000),
			def("NativeOnly", 0x20000000),
		}},
		{Header: "EditorOnly", Flags: []FlagDef{
			def("Placeable", 0x00000200).when(format.Cond{MinVersion: format.VPlaceable}),
			def("UserCreate", 0x00000200).when(format.Cond{MaxVersion: format.VPlaceable - 1}),
			def("EditInlineNew", 0x00001000),
			def("CollapseCategories", 0x00002000),
			def("Hidden", 0x01000000),
			def("HideDropDown", 0x04000000),
		}},
		{Header: "AutoGen", Flags: []FlagDef{
			def("Compiled", 0x00000002),
			def("Config", 0x00000004),
			def("Parsed", 0x00000010),
			def("Localized", 0x00000020),
			def("Instanced", 0x00200000),
			def("NeedsDefaultProps", 0x00400000),
			def("HasComponents", 0x00800000),
			def("Exported", 0x08000000),
			def("HasCrossLevelRefs", 0x80000000),
		}},
		{Header: "UT2004", When: format.Cond{Builds: []format.Build{format.BuildUT2004}}, Flags: []FlagDef{
			def("UT2004_CacheExempt", 0x00800000).unverified(),
		}},
		{Header: "VG", When: vengeance, Flags: []FlagDef{
			def("VG_Interface", 0x00100000).unverified(),
		}},
		{Header: "AHIT", When: onlyAHIT, Flags: []FlagDef{
			def("AHIT_AlwaysLoaded", 0x00008000).unverified(),
			def("AHIT_IterationOptimized", 0x00010000).unverified(),
		}},
	},
}

// FunctionFlagsTable covers FunctionFlags.
var FunctionFlagsTable = &Table{
	Prefix:       "Function.FunctionFlags",
	HeaderPrefix: "Function.FunctionFlags.Header",
	Groups: []Group{
		{Header: "General", Flags: []FlagDef{
			def("Final", FuncFinal),
			def("Defined", 0x00000002),
			def("Singular", 0x00000020),
			def("Exec", 0x00000200),
			def("Static", 0x00002000),
			def("Invariant", 0x00010000),
			def("Public", 0x00020000),
			def("Private", 0x00040000),
			def("Protected", 0x00080000),
			def("Delegate", FuncDelegate),
			def("DLLImport", 0x02000000).when(format.Cond{MinVersion: format.VDLLBind}),
			def("K2Call", 0x04000000).when(notAHIT),
			def("K2Override", 0x08000000).when(notAHIT),
			def("K2Pure", 0x10000000).when(notAHIT),
		}},
		{Header: "Replication", Flags: []FlagDef{
			def("Net", 0x00000040),
			def("NetReliable", 0x00000080),
			def("Simulated", 0x00000100),
			def("NetServer", 0x00200000),
			def("NetClient", 0x01000000),
		}},
		{Header: "Native", Flags: []FlagDef{
			def("Native", 0x00000400),
			def("Iterator", 0x00000004),
			def("Latent", 0x00000008),
			def("Event", FuncEvent),
			def("NoExport", 0x00004000).when(format.Cond{MaxVersion: format.VInterfaceClassFlag}),
			def("Const", 0x00008000),
		}},
		{Header: "Operators", Flags: []FlagDef{
			def("Operator", FuncOperator),
			def("PreOperator", 0x00000010),
		}},
		{Header: "AutoGen", Flags: []FlagDef{
			def("OptionalParams", 0x00004000).when(format.Cond{MinVersion: format.VInterfaceClassFlag + 1}),
			def("OutParams", 0x00400000),
			def("StructDefaults", 0x00800000),
		}},
		{Header: "Vengeance", When: vengeance, Flags: []FlagDef{
			def("VG_Unk1", 0x40000000).unverified(),
			def("VG_Overloaded", 0x80000000).unverified(),
		}},
		{Header: "AHIT", When: onlyAHIT, Flags: []FlagDef{
			def("AHIT_Multicast", 0x04000000),
			def("AHIT_NoOwnerRepl", 0x08000000),
			def("AHIT_Optional", 0x10000000),
			def("AHIT_EditorOnly", 0x20000000),
		}},
	},
}

// PropertyFlagsTable covers PropertyFlags.
var PropertyFlagsTable = &Table{
	Prefix:       "Property.PropertyFlags",
	HeaderPrefix: "Property.Header",
	Groups: []Group{
		{Header: "General", Flags: []FlagDef{
			def("Const", 0x00000002),
			def("Config", 0x00004000),
			def("GlobalConfig", 0x00040000),
			def("Localized", 0x00008000),
			def("Travel", 0x00010000),
			def("Input", 0x00000004),
			def("ExportObject", 0x00000008),
			def("Transient", 0x00002000),
			def("DuplicateTransient", 0x00200000).when(format.Cond{MinVersion: format.VDuplicateTransient}),
			def("Component", 0x00080000),
			def("OnDemand", 0x00100000).when(format.Cond{MaxVersion: format.VInterfaceClassFlag}),
			def("New", 0x00200000).when(format.Cond{MaxVersion: format.VDuplicateTransient - 1}),
			def("NeedCtorLink", 0x00400000),
			def("Deprecated", 0x20000000),
			def("DataBinding", 0x40000000).when(format.Cond{MinVersion: format.VDuplicateTransient}),
			def("Interp", 0x2<<hi),
			def("EditorOnly", 0x8<<hi),
			def("NotForConsole", 0x10<<hi),
			def("PrivateWrite", 0x40<<hi),
			def("ProtectedWrite", 0x80<<hi),
			def("Archetype", 0x100<<hi),
			def("CrossLevelPassive", 0x1000<<hi),
			def("CrossLevelActive", 0x2000<<hi),
		}},
		{Header: "Replication", Flags: []FlagDef{
			def("Net", 0x00000020),
			def("RepNotify", 0x1<<hi),
			def("RepRetry", 0x20<<hi),
		}},
		{Header: "Native", Flags: []FlagDef{
			def("Native", 0x00001000),
			def("Init", 0x00100000).when(format.Cond{MinVersion: format.VInterfaceClassFlag + 1}),
			def("NoExport", 0x00800000),
			def("SerializeText", 0x80000000).when(format.Cond{MinVersion: format.VEditFixedSize}),
		}},
		{Header: "FunctionParams", Flags: []FlagDef{
			def("Parm", PropParm),
			def("OptionalParm", 0x00000010),
			def("OutParm", 0x00000100),
			def("SkipParm", 0x00000200),
			def("ReturnParm", PropReturnParm),
			def("CoerceParm", 0x00000800),
		}},
		{Header: "EditorOnly", Flags: []FlagDef{
			def("Editable", 0x00000001),
			def("EditConst", 0x00020000),
			def("EditFixedSize", 0x00000040).when(format.Cond{MinVersion: format.VEditFixedSize}),
			def("EditConstArray", 0x00000040).when(format.Cond{MaxVersion: format.VEditFixedSize - 1}),
			def("NoImport", 0x01000000).when(format.Cond{MinVersion: format.VDuplicateTransient}),
			def("NoClear", 0x02000000).when(format.Cond{MinVersion: format.VDuplicateTransient}),
			def("EditorData", 0x02000000).when(format.Cond{MaxVersion: format.VDuplicateTransient - 1}),
			def("EdFindable", 0x08000000).when(notAHIT),
			def("EditInline", 0x04000000),
			def("EditInlineUse", 0x10000000),
			def("EditInlineNotify", 0x40000000).when(format.Cond{MaxVersion: format.VDuplicateTransient - 1}),
			def("NonTransactional", 0x4<<hi),
			def("EditHide", 0x200<<hi),
			def("EditTextBox", 0x400<<hi),
		}},
		{Header: "UT2004", When: ut2004, Flags: []FlagDef{
			def("UT2004_Cache", 0x01000000),
			def("UT2004_Automated", 0x80000000),
		}},
		{Header: "VG", When: vengeance, Flags: []FlagDef{
			def("VG_NoCheckPoint", 0x80000000).unverified(),
		}},
		{Header: "BIOSHOCK", When: format.Cond{Builds: []format.Build{format.BuildBioShockInfinite}}, Flags: []FlagDef{
			def("BIOINF_Unk1", 0x4000<<hi).unverified(),
			def("BIOINF_Unk2", 0x8000<<hi).unverified(),
			def("BIOINF_Unk3", 0x10000<<hi).unverified(),
		}},
		{Header: "AHIT", When: onlyAHIT, Flags: []FlagDef{
			def("AHIT_Bitwise", 0x08000000),
			def("AHIT_Serialize", 0x40000<<hi).unverified(),
		}},
	},
}

// Flags the classifiers read.
const (
	FuncFinal      = 0x00000001
	FuncEvent      = 0x00000800
	FuncOperator   = 0x00001000
	FuncDelegate   = 0x00100000
	PropParm       = 0x00000080
	PropReturnParm = 0x00000400
)
