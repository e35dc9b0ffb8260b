// Package normalisers extracts plain text from downloaded files so they can
// be captioned. Each subpackage handles one family of file extensions.
//
// Normalisers are looked up by extension through a Registry.
package normalisers
