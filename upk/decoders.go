package upk

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/format"
)

// Object flag bits the decoders need.
const (
	flagHasStack = 0x02000000
	flagNet      = 0x40 // function flag
)

// DefaultDecoders returns the built-in body decoders keyed by upper-case
// class name. Decoding stops after the last flag word of each layout.
func DefaultDecoders() map[string]BodyDecoder {
	return map[string]BodyDecoder{
		"OBJECT":       DecodeObject,
		"FIELD":        decodeFieldOnly,
		"STRUCT":       decodeStructOnly,
		"SCRIPTSTRUCT": DecodeScriptStruct,
		"STATE":        DecodeState,
		"CLASS":        DecodeClass,
		"FUNCTION":     DecodeFunction,
		"PROPERTY":     DecodeProperty,
		"CONST":        DecodeConst,
		"ENUM":         DecodeEnum,
	}
}

// decoderFor walks o's ancestry and returns the first registered decoder.
func (p *Package) decoderFor(o *Object) BodyDecoder {
	for _, name := range p.Ancestry(o) {
		if dec, ok := p.decoders[strings.ToUpper(name)]; ok {
			return dec
		}
	}
	return nil
}

// DecodeObject reads the net index and, for non-class objects, the tagged
// script property list.
func DecodeObject(r *BodyReader) error {
	if r.Object().HasObjectFlag(flagHasStack) {
		return errors.Wrap(format.ErrUnsupported, "objects with a state frame")
	}
	if r.Version() >= format.VNetObjects {
		if _, err := r.I32("NetIndex"); err != nil {
			return err
		}
	}
	if r.Object().IsClass() {
		return nil
	}
	if r.Version() < format.VUE3 {
		return readPackedProperties(r)
	}
	return readTaggedProperties(r)
}

const noneName = "None"

func readTaggedProperties(r *BodyReader) error {
	for {
		name, err := r.Name("")
		if err != nil {
			return errors.Wrap(err, "property tag")
		}
		if strings.EqualFold(r.NameString(name), noneName) {
			return nil
		}
		typ, err := r.Name("")
		if err != nil {
			return err
		}
		size, err := r.I32("")
		if err != nil {
			return err
		}
		if _, err := r.I32(""); err != nil { // array index
			return err
		}
		switch r.NameString(typ) {
		case "StructProperty":
			if _, err := r.Name(""); err != nil {
				return err
			}
		case "BoolProperty":
			if r.Version() < format.VBoolValueByte {
				_, err = r.I32("")
			} else {
				_, err = r.U8("")
			}
			if err != nil {
				return err
			}
		case "ByteProperty":
			if r.Version() >= format.VEnumNameInTag {
				if _, err := r.Name(""); err != nil {
					return err
				}
			}
		}
		if err := r.Skip("property value", int64(size)); err != nil {
			return err
		}
	}
}

// Packed property info byte used before the third generation.
const (
	packedTypeMask  = 0x0F
	packedSizeShift = 4
	packedSizeMask  = 0x07
	packedArrayBit  = 0x80
	packedBool      = 3
	packedStruct    = 10
)

var packedSizes = [...]int64{1, 2, 4, 12, 16}

func readPackedProperties(r *BodyReader) error {
	for {
		name, err := r.Name("")
		if err != nil {
			return errors.Wrap(err, "property tag")
		}
		if strings.EqualFold(r.NameString(name), noneName) {
			return nil
		}
		info, err := r.U8("")
		if err != nil {
			return err
		}
		typ := info & packedTypeMask
		if typ == packedStruct {
			if _, err := r.Name(""); err != nil {
				return err
			}
		}

		var size int64
		switch code := (info >> packedSizeShift) & packedSizeMask; code {
		case 5:
			v, err := r.U8("")
			if err != nil {
				return err
			}
			size = int64(v)
		case 6:
			v, err := r.U16("")
			if err != nil {
				return err
			}
			size = int64(v)
		case 7:
			v, err := r.I32("")
			if err != nil {
				return err
			}
			size = int64(v)
		default:
			size = packedSizes[code]
		}

		if info&packedArrayBit != 0 && typ != packedBool {
			if err := skipArrayIndex(r); err != nil {
				return err
			}
		}
		if typ == packedBool {
			// the array bit carries the value, no payload follows
			size = 0
		}
		if err := r.Skip("property value", size); err != nil {
			return err
		}
	}
}

func skipArrayIndex(r *BodyReader) error {
	b, err := r.U8("")
	if err != nil {
		return err
	}
	switch {
	case b&0x80 == 0:
		return nil
	case b&0xC0 == 0x80:
		return r.Skip("array index", 1)
	default:
		return r.Skip("array index", 3)
	}
}

func decodeField(r *BodyReader) error {
	if err := DecodeObject(r); err != nil {
		return err
	}
	if r.Version() < format.VSuperInStruct {
		if _, err := r.Index("Super"); err != nil {
			return err
		}
	}
	_, err := r.Index("Next")
	return err
}

func decodeFieldOnly(r *BodyReader) error { return decodeField(r) }

func decodeStruct(r *BodyReader) error {
	if err := decodeField(r); err != nil {
		return err
	}
	if r.Version() >= format.VSuperInStruct {
		if _, err := r.Index("Super"); err != nil {
			return err
		}
	}
	if _, err := r.Index("ScriptText"); err != nil {
		return err
	}
	if _, err := r.Index("Children"); err != nil {
		return err
	}
	// Functions took over the friendly name in the third generation.
	if r.Version() < format.VFriendlyName {
		if _, err := r.Name("FriendlyName"); err != nil {
			return err
		}
	}
	if r.Version() >= format.VCppText {
		if _, err := r.Index("CppText"); err != nil {
			return err
		}
	}
	if _, err := r.I32("Line"); err != nil {
		return err
	}
	if _, err := r.I32("TextPos"); err != nil {
		return err
	}
	scriptSize, err := r.I32("ScriptSize")
	if err != nil {
		return err
	}
	if r.Version() >= format.VScriptStorageSize {
		storage, err := r.I32("ScriptStorageSize")
		if err != nil {
			return err
		}
		return r.Skip("script", int64(storage))
	}
	if scriptSize != 0 {
		return errors.Wrap(format.ErrUnsupported, "script bytecode requires token parsing")
	}
	return nil
}

// decodeStructOnly handles plain structs. Second generation structs carry
// their flags directly after the struct part.
func decodeStructOnly(r *BodyReader) error {
	if err := decodeStruct(r); err != nil {
		return err
	}
	if r.Object().ClassName == "Struct" && r.Version() >= format.VUE2 && r.Version() < format.VUE3 {
		_, err := r.U32("StructFlags")
		return err
	}
	return nil
}

// DecodeScriptStruct captures StructFlags.
func DecodeScriptStruct(r *BodyReader) error {
	if err := decodeStruct(r); err != nil {
		return err
	}
	_, err := r.U32("StructFlags")
	return err
}

func decodeState(r *BodyReader) error {
	if err := decodeStruct(r); err != nil {
		return err
	}
	if r.Version() < format.VProbeMaskReduced {
		if _, err := r.U64("ProbeMask"); err != nil {
			return err
		}
		if _, err := r.U64("IgnoreMask"); err != nil {
			return err
		}
	} else if _, err := r.U32("ProbeMask"); err != nil {
		return err
	}
	if _, err := r.U16("LabelTableOffset"); err != nil {
		return err
	}
	if r.Version() >= format.VStateFlags {
		if _, err := r.U32("StateFlags"); err != nil {
			return err
		}
	}
	if r.Version() >= format.VArchetype {
		count, err := r.I32("FuncMapCount")
		if err != nil {
			return err
		}
		if count < 0 || int64(count) > r.Remaining() {
			return errors.Wrapf(format.ErrUnsupported, "function map count %d", count)
		}
		for i := int32(0); i < count; i++ {
			if _, err := r.Name(""); err != nil {
				return err
			}
			if _, err := r.Index(""); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeState captures StateFlags.
func DecodeState(r *BodyReader) error { return decodeState(r) }

// DecodeClass captures StateFlags and ClassFlags.
func DecodeClass(r *BodyReader) error {
	if err := decodeState(r); err != nil {
		return err
	}
	_, err := r.U32("ClassFlags")
	return err
}

// DecodeFunction captures FunctionFlags.
func DecodeFunction(r *BodyReader) error {
	if err := decodeStruct(r); err != nil {
		return err
	}
	if r.Version() < format.VSizePrefixDeprecated {
		if _, err := r.U16("ParmsSize"); err != nil {
			return err
		}
		if _, err := r.U16("iNative"); err != nil {
			return err
		}
		if _, err := r.U8("NumParms"); err != nil {
			return err
		}
		if _, err := r.U8("OperPrecedence"); err != nil {
			return err
		}
		if _, err := r.U16("ReturnValueOffset"); err != nil {
			return err
		}
		_, err := r.U32("FunctionFlags")
		return err
	}

	if _, err := r.U16("iNative"); err != nil {
		return err
	}
	if _, err := r.U8("OperPrecedence"); err != nil {
		return err
	}
	flags, err := r.U32("FunctionFlags")
	if err != nil {
		return err
	}
	if flags&flagNet != 0 {
		if _, err := r.U16("RepOffset"); err != nil {
			return err
		}
	}
	if r.Version() >= format.VFriendlyName {
		if _, err := r.Name("FriendlyName"); err != nil {
			return err
		}
	}
	return nil
}

// DecodeProperty captures PropertyFlags, 64 bits wide from
// format.VPropertyFlags64.
func DecodeProperty(r *BodyReader) error {
	if err := decodeField(r); err != nil {
		return err
	}
	if _, err := r.I32("ArrayDim"); err != nil {
		return err
	}
	if r.Version() >= format.VPropertyFlags64 {
		_, err := r.U64("PropertyFlags")
		return err
	}
	_, err := r.U32("PropertyFlags")
	return err
}

// DecodeConst reads the constant's value.
func DecodeConst(r *BodyReader) error {
	if err := decodeField(r); err != nil {
		return err
	}
	_, err := r.String("Value")
	return err
}

// DecodeEnum reads the enum's names.
func DecodeEnum(r *BodyReader) error {
	if err := decodeField(r); err != nil {
		return err
	}
	count, err := r.I32("NamesCount")
	if err != nil {
		return err
	}
	if count < 0 || int64(count) > r.Remaining() {
		return errors.Wrapf(format.ErrUnsupported, "enum name count %d", count)
	}
	for i := int32(0); i < count; i++ {
		if _, err := r.Name(""); err != nil {
			return err
		}
	}
	return nil
}
