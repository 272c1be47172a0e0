package anyform

// NumberFormat dictates how numeric scalars are rendered on encode.
type NumberFormat int

const (
	NumberAsIs       NumberFormat = iota // Emit numbers natively.
	NumberScientific                     // Render as scientific-notation strings.
	NumberHexString                      // Render integers as 0x-prefixed strings.
)

// DateFormat dictates how time.Time scalars are rendered on encode.
type DateFormat int

const (
	DateISO8601     DateFormat = iota // RFC 3339 / ISO-8601 string.
	DateUnixSeconds                   // Unix epoch seconds as an integer.
	DateCustom                        // Config.DateLayout (Go reference layout).
)

// BytesRendering selects the text rendering for encoded Protobuf bytes.
type BytesRendering int

const (
	RenderBase64 BytesRendering = iota // Standard base64 (default).
	RenderHex                          // Lowercase compact hex; see Config.Pretty.
	RenderBinary                       // Per-byte 8-digit binary.
)

// Config bundles conversion options. It is owned by the caller and read-only
// from the perspective of every codec and transform; a nil *Config is treated
// as the zero value everywhere.
type Config struct {
	// MaxDepth bounds recursion for decode, encode, and transforms.
	// Zero or negative means unlimited.
	MaxDepth int
	// IgnoreErrors substitutes sentinel placeholder values for failed units
	// instead of aborting the whole operation.
	IgnoreErrors bool
	// StripMetadata drops metadata keys ("@..."/"#..." ) from object nodes.
	StripMetadata bool
	// SortKeys orders object keys lexicographically instead of by insertion.
	SortKeys bool

	NumberFormat NumberFormat
	DateFormat   DateFormat
	DateLayout   string // Layout for DateCustom; ignored otherwise.

	Rendering BytesRendering
	Pretty    bool   // Hex: uppercase + space-grouped. Binary: space-grouped.
	Minified  bool   // Suppresses Pretty grouping and text-format indentation.
	Indent    string // Indent unit for text encoders; default two spaces.

	// ChunkSize is the read size for streaming decode. Zero means the
	// default of 64 KiB.
	ChunkSize int
}

const defaultChunkSize = 64 * 1024

func (c *Config) orZero() *Config {
	if c == nil {
		return &Config{}
	}
	return c
}

func (c *Config) chunkSize() int {
	if c == nil || c.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return c.ChunkSize
}

// ChunkSizeOrDefault returns the effective streaming read size.
func (c *Config) ChunkSizeOrDefault() int { return c.chunkSize() }

// IndentOrDefault returns the effective indent unit for text encoders.
func (c *Config) IndentOrDefault() string {
	if c == nil || c.Indent == "" {
		return "  "
	}
	return c.Indent
}
