// Package safemem provides the memory and string primitives used on the
// launch path.
//
// Nothing here touches the Go heap for the memory it hands out: blocks come
// straight from anonymous mappings, so the strings and pointer vectors built
// on top of them can be passed to C entry points without pinning and stay
// valid no matter what the garbage collector is doing. Output goes through
// write(2) directly, without buffering in library code.
package safemem
