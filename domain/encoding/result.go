package encoding

// Kind tells which artifact an encode produced.
type Kind int

const (
	KindNone    Kind = iota // nothing usable was written
	KindVideo               // encoded video file
	KindFrames              // frame directory plus instructions file
	KindSummary             // text summary, no frames were captured
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindFrames:
		return "frames"
	case KindSummary:
		return "summary"
	default:
		return "none"
	}
}

// Result is the immutable outcome of Encode. Path points at the video file,
// the frame directory or the summary depending on Kind; InstructionsPath is
// only set for KindFrames.
type Result struct {
	Kind             Kind
	Path             string
	InstructionsPath string
	FrameCount       int
	FrameRate        int
}

// OK reports whether an artifact exists.
func (r Result) OK() bool { return r.Kind != KindNone && r.Path != "" }

// Degraded reports whether the external encoder was not used successfully.
func (r Result) Degraded() bool { return r.Kind == KindFrames || r.Kind == KindSummary }
