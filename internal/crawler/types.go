package crawler

// Strategy names the scan that produced a result
type Strategy string

const (
	// StrategyTargeted matched elements by tag and class
	StrategyTargeted Strategy = "targeted"
	// StrategyFallback scanned the whole rendered text
	StrategyFallback Strategy = "fallback"
)

// BoundaryMode decides which heading closes the expired section
type BoundaryMode string

const (
	// BoundaryRank closes the section at the next heading of equal or higher rank
	BoundaryRank BoundaryMode = "rank"
	// BoundaryAny closes the section at the next heading of any level
	BoundaryAny BoundaryMode = "any"
)

// Selectors describe the elements the targeted scan looks at
type Selectors struct {
	// Tag is the element name, e.g. "span"
	Tag string
	// ClassTokens are matched against the element's class attribute
	ClassTokens []string
	// RequireAll requires every token instead of any one of them
	RequireAll bool
}

// ExtractConfig contains configuration for an extraction
type ExtractConfig struct {
	UseClassHint    bool
	Selectors       Selectors
	IncludeExpired  bool
	ExpiredHeading  string
	ExpiredBoundary BoundaryMode
	// ActiveHeading opens the section whose table lists expiry details
	ActiveHeading string
}

// Candidate is a code-shaped token and where it was found.
// Pos is a document-order node index for targeted candidates and a rendered
// text offset for fallback candidates.
type Candidate struct {
	Code string
	Pos  int
}

// Result is the outcome of an extraction
type Result struct {
	// Codes are valid, normalized and unique, in order of first appearance
	Codes           []string
	Strategy        Strategy
	FallbackUsed    bool
	MatchedElements int
	ExpiredFound    bool
	ExpiredExcluded []string
	// Expirations maps codes of the active table to the expiry text shown next to them
	Expirations map[string]string
	Warnings    []error
}
