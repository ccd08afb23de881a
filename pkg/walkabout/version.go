// Package walkabout carries module-level metadata.
package walkabout

// Version is the module version reported by the CLI.
const Version = "0.3.0"
