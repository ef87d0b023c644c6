// Package manifest reads bundle descriptors.
//
// A bundle root is either an archive (a .jar file) or a directory. The reader
// looks for the manifest in this order:
//
//   - archive: the META-INF/MANIFEST.MF entry inside the archive
//   - directory: the META-INF/MANIFEST.MF file
//   - directory without a manifest: a legacy plugin.xml or fragment.xml,
//     converted into equivalent headers by a [Converter]
//
// When none of these exist [Reader.Read] returns [ErrNoManifest]; callers
// scanning a directory treat that as "not a bundle" and skip the entry.
//
// # Header syntax
//
// Header values are parsed with [ParseHeader] into clauses:
//
//	Bundle-SymbolicName: com.example.a;singleton:=true
//	Require-Bundle: org.a;bundle-version="[1.0,2.0)",org.b;resolution:=optional
//
// Each clause has one or more values, attributes (key=value) and directives
// (key:=value). Commas and semicolons inside double quotes are literal.
package manifest
