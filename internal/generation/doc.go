// Package generation defines the boundary between the application core and
// the external generation service. It holds the request/result types, the
// Client and Extractor interfaces, the pipeline error taxonomy, and the
// extractors for the two webhook response shapes, allowing the rest of the
// application to run the creation pipeline without coupling to the wire
// details of the upstream service.
package generation
