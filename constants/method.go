package constants

// Method identifies which extraction path produced a receipt.
type Method string

// Stable values (serialized into share records).
const (
	MethodVision   Method = "vision"         // primary vision-model extraction
	MethodFallback Method = "regex-fallback" // heuristic text parser
	MethodNone     Method = "none"           // sentinel: nothing usable extracted
)

// Confidence assigned per extraction path. The fallback parser is inherently
// less reliable than the vision model, the sentinel carries none at all.
const (
	VisionConfidence   float64 = 0.95
	FallbackConfidence float64 = 0.5
)
