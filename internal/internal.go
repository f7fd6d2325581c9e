// Package internal carries build metadata shared by the objfilter binaries.
package internal

// Version is the objfilter version, overridable at build time via -ldflags.
var Version = "0.2.0"
