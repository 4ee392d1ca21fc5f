// Package catalog defines the fixed set of device types that can live on a
// project desktop, resolves loose user- or agent-supplied type names to
// canonical identifiers, and recommends a device for a free-text style
// description.
package catalog
