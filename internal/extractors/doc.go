// Package extractors wires the format readers into a single registry.
//
// Each sub-package handles one family of declared formats and implements
// driven.Extractor. The registry dispatches a raw document by its declared
// format and rejects formats nothing is registered for.
package extractors
