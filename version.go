package fieldwork

import _ "embed"

// Version is the release of the fieldwork module.
//
//go:embed VERSION
var Version string
