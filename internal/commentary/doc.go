// Package commentary turns accepted game events into caster lines.
//
// # Selection
//
// A Selector picks, for each event, the caster voice, the commentary
// style and a template from the Catalog:
//   - Casters alternate Hype, Analyst, Hype, ... per committed line.
//   - The style follows from the event kind.
//   - Among the templates for (kind, style) one is picked at random,
//     never the one last used for the same kind when another exists.
//
// # Rendering
//
// Templates use text/template syntax over the event's fields, for
// example "{{.subject}} takes down {{.victim}}". The Renderer refuses to
// render when a referenced field is missing.
//
// # Catalog
//
// The built-in catalog is embedded from templates.yaml. LoadCatalog reads
// a replacement file with the same layout.
package commentary
