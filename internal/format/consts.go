// Package format holds the low-level knowledge about the Unreal package
// container: the signature, the version thresholds at which fields appear or
// change shape, the known licensee builds, and the layout rules used to walk
// the header and export table without a full parse.
//
// Nothing in here performs I/O. The upk package reads the container and the
// editor/locate package replays the layout rules against a live stream.
package format

const (
	// Signature is the tag at offset 0 of every package. A package whose first
	// four bytes decode to the byte-reversed tag was written big-endian.
	//   0x00  C1 83 2A 9E  (little-endian)
	Signature uint32 = 0x9E2A83C1

	// SignatureSwapped is Signature as it reads from a big-endian package.
	SignatureSwapped uint32 = 0xC1832A9E
)

// Summary layout (after the tag):
//
//	0x04  int32   version, low 16 bits file version, high 16 bits licensee
//	....  build specific words (see HeaderRules)
//	....  int32   header size           (>= VHeaderSize)
//	....  string  folder name           (>= VFolderName)
//	....  uint32  package flags
//	....  int32   name count, name offset
//	....  int32   export count, export offset
//	....  int32   import count, import offset
const (
	// VersionOffset is the absolute offset of the version word.
	VersionOffset = 4
)

// Version thresholds. A field guarded by one of these exists when the
// package file version is greater than or equal to the threshold.
const (
	VSizePrefixDeprecated = 64  // strings are length prefixed from here on
	VHeritageDeprecated   = 68  // heritage table replaced by guid + generations
	VPlaceable            = 69  // class flag 0x200 means Placeable instead of UserCreate
	VUE2                  = 100 // first file version treated as the second generation
	VCppText              = 120 // structs carry a C++ text reference
	VLongStructFlag       = 129 // struct flag 0x4 means HasComponents instead of Long
	VNameFlags64          = 141 // name flags widen to 64 bits
	VDuplicateTransient   = 161
	VIndexDeprecated      = 178 // compact indices replaced by int32
	VUE3                  = 184 // first file version treated as the third generation
	VFriendlyName         = 189 // functions carry a friendly name
	VObjectFlagsToULONG   = 195 // object flags stored as two uint32 halves, high first
	VPropertyFlags64      = 195 // property flags widen to 64 bits
	VArchetype            = 220
	VStructTransient      = 222 // struct flag 0x8 means Transient instead of Init
	VEngineVersion        = 245
	VExportFlags          = 247
	VHeaderSize           = 249
	VSerialSizeAlways     = 249 // serial offset present even when the size is zero
	VFolderName           = 269
	VCookerVersion        = 277
	VInterfaceClassFlag   = 300 // class flag 0x4000 means Interface from here on
	VNetObjects           = 322
	VCompression          = 334
	VNameNumbered         = 343 // name references carry an instance number
	VDependsOffset        = 415
	VExportPackageFlags   = 475
	VEditFixedSize        = 501
	VComponentMapRemoved  = 543
	VThumbnailTable       = 584
	VEnumNameInTag        = 633
	VScriptStorageSize    = 639
	VImportExportGuids    = 623
	VBoolValueByte        = 673
	VProbeMaskReduced     = 691
	VDLLBind              = 655
	VSuperInStruct        = 756
	VStateFlags           = 61
)

// Flag words wider than 32 bits keep their second half in the high dword.
// A high-order flag mask is shifted by HighShift when combined with a
// low-order one.
const HighShift = 32
