package golabel

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// RuleType identifies an extraction rule variant.
type RuleType string

const (
	RuleDirect        RuleType = "direct"
	RuleFirstWord     RuleType = "first_word"
	RuleLastWord      RuleType = "last_word"
	RuleRegex         RuleType = "regex"
	RuleManual        RuleType = "manual"
	RulePositionBased RuleType = "position_based"
	RuleContextBased  RuleType = "context_based"
)

// PositionKind selects a position_based sub-variant.
type PositionKind string

const (
	PositionAfter              PositionKind = "after"
	PositionBefore             PositionKind = "before"
	PositionBetween            PositionKind = "between"
	PositionAfterStorage       PositionKind = "after_storage"
	PositionBeforeStorage      PositionKind = "before_storage"
	PositionLastSegmentPattern PositionKind = "last_segment_pattern"
	PositionFirstWord          PositionKind = "first_word"
	PositionLastWord           PositionKind = "last_word"
	PositionWordPosition       PositionKind = "word_position"
	PositionWordRange          PositionKind = "word_range"
)

// ContextKind selects a context_based sub-variant. Each kind matches one
// fixed domain pattern in the raw cell value.
type ContextKind string

const (
	ContextStorage ContextKind = "storage"
	ContextColor   ContextKind = "color"
	ContextModel   ContextKind = "model"
	ContextIMEI    ContextKind = "imei"
)

// ExtractionRule describes how to derive a display string from a raw
// spreadsheet cell value. Type selects the variant; the remaining fields are
// the variant's associated data and are ignored by other variants.
type ExtractionRule struct {
	Type       RuleType     `json:"type"`
	Pattern    string       `json:"pattern,omitempty"`  // regex: JS-style "/pat/flags" or a bare Go pattern
	Value      string       `json:"value,omitempty"`    // manual: fixed override string
	Position   PositionKind `json:"positionType,omitempty"`
	Marker     string       `json:"marker,omitempty"`     // after/before/between: start marker
	EndMarker  string       `json:"endMarker,omitempty"`  // between: end marker
	WordIndex  int          `json:"wordIndex,omitempty"`  // word_position: 0-based token index
	RangeStart int          `json:"rangeStart,omitempty"` // word_range: first token, inclusive
	RangeEnd   int          `json:"rangeEnd,omitempty"`   // word_range: last token, inclusive
	Context    ContextKind  `json:"contextType,omitempty"`
}

// Fixed domain patterns used by context_based rules and legacy inference.
var (
	storagePattern = regexp.MustCompile(`\d+\+\d+`)
	colorPattern   = regexp.MustCompile(`(?i)\b(black|white|blue|green|red|gold|silver|gray|grey|purple|pink|yellow|orange|bronze|graphite|midnight|starlight|titanium|cream|mint|lavender|cyan|teal|violet)\b`)
	modelPattern   = regexp.MustCompile(`[A-Z]\d{2,3}[A-Z]?`)
	imeiPattern    = regexp.MustCompile(`\d{15}`)
)

// jsRegexPattern matches a JavaScript-style delimited regex literal.
var jsRegexPattern = regexp.MustCompile(`^/(.+)/([a-z]*)$`)

// Evaluator applies extraction rules to raw cell values. Extraction failures
// are silent and non-fatal: on any internal error the original value is
// returned unchanged, and a structured log record is emitted so operators can
// spot systematically failing rules across a batch. An Evaluator is scoped to
// one renderer instance and is not safe for concurrent use.
type Evaluator struct {
	logger   *zap.Logger
	compiled map[string]*regexp.Regexp // user pattern -> compiled, nil for known-bad
}

// NewEvaluator creates an Evaluator. A nil logger disables logging.
func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		logger:   logger,
		compiled: make(map[string]*regexp.Regexp),
	}
}

// Apply evaluates rule against raw and returns the derived display string.
// A nil rule is a direct copy. Apply never panics; malformed rules fall back
// to raw. The single exception is word_position with an out-of-bounds index,
// which returns "" so that ambiguous upstream data is not silently echoed.
func (e *Evaluator) Apply(raw string, rule *ExtractionRule) string {
	if rule == nil {
		return raw
	}
	switch rule.Type {
	case RuleDirect, "":
		return raw
	case RuleFirstWord:
		return e.firstWord(raw)
	case RuleLastWord:
		return e.lastWord(raw)
	case RuleRegex:
		return e.applyRegex(raw, rule.Pattern)
	case RuleManual:
		if rule.Value != "" {
			return rule.Value
		}
		return raw
	case RulePositionBased:
		return e.applyPosition(raw, rule)
	case RuleContextBased:
		return e.applyContext(raw, rule.Context)
	default:
		e.fallback("unknown rule type", string(rule.Type), raw)
		return raw
	}
}

func (e *Evaluator) firstWord(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return raw
	}
	return fields[0]
}

func (e *Evaluator) lastWord(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return raw
	}
	return fields[len(fields)-1]
}

// applyRegex compiles and applies a user-supplied pattern. JavaScript-style
// delimited literals ("/pat/flags") are accepted: the "i" flag maps to Go's
// case-insensitive mode and "g" is tolerated but has no effect, since a
// single match is returned. If the pattern has a capture group, the first
// group is returned; otherwise the whole match.
func (e *Evaluator) applyRegex(raw, pattern string) string {
	if pattern == "" {
		return raw
	}
	re, ok := e.compiled[pattern]
	if !ok {
		re = compileUserPattern(pattern)
		e.compiled[pattern] = re
		if re == nil {
			e.logger.Warn("extraction rule has invalid regex",
				zap.String("rule", string(RuleRegex)),
				zap.String("pattern", pattern))
		}
	}
	if re == nil {
		return raw
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		e.fallback("regex did not match", pattern, raw)
		return raw
	}
	if len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return m[0]
}

// compileUserPattern translates a JS-style "/pat/flags" literal, or a bare
// pattern, into a compiled Go regexp. Returns nil if compilation fails.
func compileUserPattern(pattern string) *regexp.Regexp {
	if m := jsRegexPattern.FindStringSubmatch(pattern); m != nil {
		pattern = m[1]
		if strings.Contains(m[2], "i") {
			pattern = "(?i)" + pattern
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

func (e *Evaluator) applyPosition(raw string, rule *ExtractionRule) string {
	switch rule.Position {
	case PositionAfter:
		idx := strings.Index(raw, rule.Marker)
		if rule.Marker == "" || idx < 0 {
			e.fallback("marker not found", string(rule.Position), raw)
			return raw
		}
		return strings.TrimSpace(raw[idx+len(rule.Marker):])
	case PositionBefore:
		idx := strings.Index(raw, rule.Marker)
		if rule.Marker == "" || idx < 0 {
			e.fallback("marker not found", string(rule.Position), raw)
			return raw
		}
		return strings.TrimSpace(raw[:idx])
	case PositionBetween:
		start := strings.Index(raw, rule.Marker)
		if rule.Marker == "" || start < 0 {
			e.fallback("start marker not found", string(rule.Position), raw)
			return raw
		}
		rest := raw[start+len(rule.Marker):]
		end := strings.Index(rest, rule.EndMarker)
		if rule.EndMarker == "" || end < 0 {
			e.fallback("end marker not found", string(rule.Position), raw)
			return raw
		}
		return strings.TrimSpace(rest[:end])
	case PositionAfterStorage:
		loc := storagePattern.FindStringIndex(raw)
		if loc == nil {
			e.fallback("no storage pattern", string(rule.Position), raw)
			return raw
		}
		return strings.TrimSpace(raw[loc[1]:])
	case PositionBeforeStorage:
		loc := storagePattern.FindStringIndex(raw)
		if loc == nil {
			e.fallback("no storage pattern", string(rule.Position), raw)
			return raw
		}
		return strings.TrimSpace(raw[:loc[0]])
	case PositionLastSegmentPattern:
		return e.lastSegmentPattern(raw)
	case PositionFirstWord:
		return e.firstWord(raw)
	case PositionLastWord:
		return e.lastWord(raw)
	case PositionWordPosition:
		fields := strings.Fields(raw)
		if rule.WordIndex < 0 || rule.WordIndex >= len(fields) {
			e.fallback("word position out of bounds", string(rule.Position), raw)
			return ""
		}
		return fields[rule.WordIndex]
	case PositionWordRange:
		return e.wordRange(raw, rule.RangeStart, rule.RangeEnd)
	default:
		e.fallback("unknown position kind", string(rule.Position), raw)
		return raw
	}
}

// lastSegmentPattern extracts a "digit+digit" storage spec (e.g. "64+2")
// anchored at the end of the value. It first inspects the substring after the
// last space; if that segment carries the pattern, the pattern is returned.
// Otherwise the whole string is searched for the pattern, and only if that
// also fails is the bare last segment (or the unchanged input) returned.
func (e *Evaluator) lastSegmentPattern(raw string) string {
	seg := ""
	if idx := strings.LastIndex(raw, " "); idx >= 0 {
		seg = raw[idx+1:]
		if m := storagePattern.FindString(seg); m != "" {
			return m
		}
	}
	if m := storagePattern.FindString(raw); m != "" {
		return m
	}
	if seg != "" {
		return seg
	}
	return raw
}

// wordRange joins the 0-indexed, inclusive token range [start, end].
// The end is clamped to the last token; an invalid start falls back to raw.
func (e *Evaluator) wordRange(raw string, start, end int) string {
	fields := strings.Fields(raw)
	if start < 0 || start >= len(fields) || end < start {
		e.fallback("word range out of bounds", string(PositionWordRange), raw)
		return raw
	}
	if end >= len(fields) {
		end = len(fields) - 1
	}
	return strings.Join(fields[start:end+1], " ")
}

func (e *Evaluator) applyContext(raw string, kind ContextKind) string {
	var re *regexp.Regexp
	switch kind {
	case ContextStorage:
		re = storagePattern
	case ContextColor:
		re = colorPattern
	case ContextModel:
		re = modelPattern
	case ContextIMEI:
		re = imeiPattern
	default:
		e.fallback("unknown context kind", string(kind), raw)
		return raw
	}
	if m := re.FindString(raw); m != "" {
		return m
	}
	e.fallback("context pattern did not match", string(kind), raw)
	return raw
}

// fallback records a silent extraction fallback. The raw value is truncated
// so that a pathological cell cannot flood the log.
func (e *Evaluator) fallback(reason, rule, raw string) {
	const maxLogged = 64
	if len(raw) > maxLogged {
		raw = raw[:maxLogged] + "..."
	}
	e.logger.Debug("extraction fallback",
		zap.String("reason", reason),
		zap.String("rule", rule),
		zap.String("raw", raw))
}
