// Package upk reads the parts of an Unreal package that flag editing needs.
//
// # Overview
//
// A package starts with a summary (tag, file version, licensee version,
// package flags, table counts and offsets) followed by the name, import and
// export tables and the serialized object bodies. Only the summary and the
// three tables are read eagerly. Object bodies are walked by per-class
// BodyDecoders that stop once the flag words they care about have been
// captured, recording each field they touch as a BinaryField.
//
// # Byte Order
//
// The tag 0x9E2A83C1 reads byte-swapped in packages written for big-endian
// consoles. Every multi-byte primitive on Stream honors that order.
//
// # Writing
//
// Stream exposes sized writes so callers can patch flag words in place. No
// write ever changes the length of the file.
package upk
