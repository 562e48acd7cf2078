// Package voice turns transcribed speech into attendance commands.
//
// A transcript goes through four independently testable steps: case folding
// plus the ordered substitution table (Substitute), whitespace tokenization
// (Tokenize), identifier extraction (FindIdentifier) and status extraction
// (FindStatus). Normalize composes them and emits a command only when both an
// identifier and a status were found.
package voice

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/okian/rollcall/internal/domain/model"
	"golang.org/x/text/cases"
)

// Default identifier format: "R" followed by three zero-padded digits.
const (
	defaultPrefix = "r"
	defaultWidth  = 3
	maxWidth      = 9
)

// Correction rewrites a token the transcription service commonly mishears.
type Correction struct {
	Wrong string `koanf:"wrong"`
	Right string `koanf:"right"`
}

// DefaultCorrections is the substitution table used when none is configured.
// Order matters: rules are applied one after another.
var DefaultCorrections = []Correction{
	{Wrong: "percent", Right: "present"},
	{Wrong: "presence", Right: "present"},
	{Wrong: "absence", Right: "absent"},
	{Wrong: "absinthe", Right: "absent"},
	{Wrong: "are", Right: "r"},
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithCorrections replaces the substitution table. An empty table keeps the default.
func WithCorrections(table []Correction) Option {
	return func(n *Normalizer) {
		if len(table) > 0 {
			n.corrections = table
		}
	}
}

// WithIdentifierFormat sets the single-letter prefix and the digit width
// identifiers are padded to.
func WithIdentifierFormat(prefix string, width int) Option {
	return func(n *Normalizer) {
		if p := strings.ToLower(strings.TrimSpace(prefix)); len([]rune(p)) == 1 {
			n.prefix = p
		}
		if width > 0 && width <= maxWidth {
			n.width = width
		}
	}
}

// Normalizer converts transcripts into commands. It is immutable after New
// and safe for concurrent use.
type Normalizer struct {
	corrections []Correction
	prefix      string
	width       int
}

// New creates a Normalizer with the default table and identifier format.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		corrections: DefaultCorrections,
		prefix:      defaultPrefix,
		width:       defaultWidth,
	}
	for _, opt := range opts {
		opt(n)
	}

	folded := make([]Correction, 0, len(n.corrections))
	for _, c := range n.corrections {
		w, r := strings.ToLower(strings.TrimSpace(c.Wrong)), strings.ToLower(strings.TrimSpace(c.Right))
		if w == "" {
			continue
		}
		folded = append(folded, Correction{Wrong: w, Right: r})
	}
	n.corrections = folded
	return n
}

// Normalize derives a command from transcript. Failures are *model.Rejection
// values carrying the normalized transcript in their message and the raw
// transcript as Raw.
func (n *Normalizer) Normalize(transcript string) (model.Command, error) {
	if strings.TrimSpace(transcript) == "" {
		return model.Command{}, model.Reject("no speech detected", transcript)
	}

	tokens := n.Tokens(transcript)
	heard := strings.Join(tokens, " ")

	id, hasID := n.FindIdentifier(tokens)
	status, ambiguous, hasStatus := FindStatus(tokens)

	switch {
	case ambiguous:
		return model.Command{}, model.Ambiguous(
			fmt.Sprintf("heard %q: both present and absent spoken (first was %s)", heard, status), transcript)
	case !hasID || !hasStatus:
		return model.Command{}, model.Reject(
			fmt.Sprintf("heard %q: could not detect %s; say e.g. %q", heard, missing(hasID, hasStatus), n.example()), transcript)
	}
	return model.Command{SubjectID: id, Status: status, Source: model.SourceVoice}, nil
}

// Tokens runs folding, tokenization and substitution over transcript.
func (n *Normalizer) Tokens(transcript string) []string {
	// Casers carry state; one per call.
	return Substitute(Tokenize(cases.Fold().String(transcript)), n.corrections)
}

// Tokenize splits on whitespace and strips punctuation around each word.
func Tokenize(s string) []string {
	fields := strings.Fields(s)
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, unicode.IsPunct)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Substitute applies each correction, in table order, as a whole-word
// replacement over all tokens. A correction whose Right is empty drops the word.
// A correction may therefore feed a later one.
func Substitute(tokens []string, table []Correction) []string {
	out := append([]string(nil), tokens...)
	for _, c := range table {
		next := out[:0]
		for _, tok := range out {
			if tok == c.Wrong {
				if c.Right == "" {
					continue
				}
				tok = c.Right
			}
			next = append(next, tok)
		}
		out = next
	}
	return out
}

// FindIdentifier scans left to right for the prefix letter followed by digits,
// either in the same token ("r5") or the next one ("r 5"). The first fully
// formed identifier wins.
func (n *Normalizer) FindIdentifier(tokens []string) (string, bool) {
	for i, tok := range tokens {
		if !strings.HasPrefix(tok, n.prefix) {
			continue
		}
		digits := tok[len(n.prefix):]
		if digits == "" && i+1 < len(tokens) {
			digits = tokens[i+1]
		}
		if id, ok := n.format(digits); ok {
			return id, true
		}
	}
	return "", false
}

// FindStatus returns the first status word in tokens. ambiguous is true when
// the other status word also occurs.
func FindStatus(tokens []string) (status model.Status, ambiguous bool, found bool) {
	for _, tok := range tokens {
		var s model.Status
		switch tok {
		case "present":
			s = model.StatusPresent
		case "absent":
			s = model.StatusAbsent
		default:
			continue
		}
		if !found {
			status, found = s, true
			continue
		}
		if s != status {
			return status, true, true
		}
	}
	return status, false, found
}

func (n *Normalizer) format(digits string) (string, bool) {
	if digits == "" {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	// Padded as text; the run may exceed any integer type.
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	if pad := n.width - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return strings.ToUpper(n.prefix) + digits, true
}

func (n *Normalizer) example() string {
	return fmt.Sprintf("mark %s5 present", strings.ToUpper(n.prefix))
}

func missing(hasID, hasStatus bool) string {
	switch {
	case !hasID && !hasStatus:
		return "identifier or status"
	case !hasID:
		return "identifier"
	default:
		return "status"
	}
}
