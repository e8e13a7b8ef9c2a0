// Package jsonv decodes complete JSON documents into a tagged Value tree.
//
// Ownership boundary:
// - recursive-descent grammar over one already-buffered document
// - string escape and surrogate-pair decoding
// - syntactic integer/float classification of numbers
// - Value encoding back to JSON text
//
// Parsed values never reference the input buffer; callers may reuse it as soon as Parse
// returns.
package jsonv
