package outline

import (
	_ "embed"
)

// Version is the current version of the library.
//
//go:embed VERSION
var Version string
