package content

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SimilarityThreshold is the ratio above which two articles are treated
// as duplicates of each other.
const SimilarityThreshold = 0.85

// Query parameters stripped during URL normalization. utm_* is handled
// as a prefix match.
var trackingParams = map[string]bool{
	"fbclid":   true,
	"gclid":    true,
	"dclid":    true,
	"msclkid":  true,
	"yclid":    true,
	"igshid":   true,
	"ref":      true,
	"source":   true,
	"campaign": true,
	"mc_cid":   true,
	"mc_eid":   true,
	"_ga":      true,
	"_gl":      true,
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "shall": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "it": true, "its": true,
	"as": true, "if": true, "then": true, "than": true, "so": true,
	"not": true, "no": true,
}

// Deduplicator suppresses duplicate articles within a process. The
// in-memory URL set is a fast path only; the database unique constraint
// on content item URLs is the authoritative guard.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}),
	}
}

// NormalizeURL strips the fragment and tracking query parameters, sorts
// the remaining parameters, and removes any trailing slash. Returns the
// input unchanged if it cannot be parsed. Idempotent.
func (d *Deduplicator) NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.RawQuery != "" {
		values := u.Query()
		for key := range values {
			if trackingParams[strings.ToLower(key)] || strings.HasPrefix(strings.ToLower(key), "utm_") {
				values.Del(key)
			}
		}
		// Encode sorts parameters by key
		u.RawQuery = values.Encode()
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}

func (d *Deduplicator) IsDuplicateURL(raw string) bool {
	normalized := d.NormalizeURL(raw)

	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[normalized]
	return ok
}

func (d *Deduplicator) AddURL(raw string) {
	normalized := d.NormalizeURL(raw)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[normalized] = struct{}{}
}

// ContentHash produces a stable digest over the normalized token
// sequence with stopwords removed, for exact near-duplicate detection.
func (d *Deduplicator) ContentHash(contentText string) string {
	tokens := normalizeTokens(contentText)

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !stopwords[token] {
			filtered = append(filtered, token)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(filtered, " ")))
	return hex.EncodeToString(hash[:])
}

// ContentSimilarity returns a sequence-similarity ratio in [0,1] between
// the normalized forms of two texts.
func (d *Deduplicator) ContentSimilarity(a, b string) float64 {
	na := []rune(strings.Join(normalizeTokens(a), " "))
	nb := []rune(strings.Join(normalizeTokens(b), " "))

	total := len(na) + len(nb)
	if total == 0 {
		return 1.0
	}

	return 2 * float64(matchingRunes(na, nb)) / float64(total)
}

func (d *Deduplicator) IsSimilarContent(a, b string) bool {
	return d.ContentSimilarity(a, b) >= SimilarityThreshold
}

// Fingerprint is a cheap pre-filter summary used before running a full
// similarity comparison.
type Fingerprint struct {
	WordCount         int
	CharCount         int
	ContentHash       string
	TopTrigrams       []string
	FirstSentenceHash string
	LastSentenceHash  string
	LengthBucket      string
}

func (d *Deduplicator) ExtractFingerprint(contentText string) Fingerprint {
	tokens := normalizeTokens(contentText)
	sentences := splitSentences(contentText)

	fp := Fingerprint{
		WordCount:    len(tokens),
		CharCount:    len([]rune(contentText)),
		ContentHash:  d.ContentHash(contentText),
		TopTrigrams:  topTrigrams(tokens, 5),
		LengthBucket: lengthBucket(len([]rune(contentText))),
	}

	if len(sentences) > 0 {
		fp.FirstSentenceHash = hashSentence(sentences[0])
		fp.LastSentenceHash = hashSentence(sentences[len(sentences)-1])
	}

	return fp
}

func lengthBucket(chars int) string {
	switch {
	case chars < 500:
		return "short"
	case chars < 2000:
		return "medium"
	case chars < 5000:
		return "long"
	default:
		return "very_long"
	}
}

func hashSentence(sentence string) string {
	hash := sha256.Sum256([]byte(strings.Join(normalizeTokens(sentence), " ")))
	return hex.EncodeToString(hash[:])
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

func topTrigrams(tokens []string, n int) []string {
	if len(tokens) < 3 {
		return nil
	}

	counts := make(map[string]int)
	for i := 0; i+2 < len(tokens); i++ {
		trigram := tokens[i] + " " + tokens[i+1] + " " + tokens[i+2]
		counts[trigram]++
	}

	trigrams := make([]string, 0, len(counts))
	for trigram := range counts {
		trigrams = append(trigrams, trigram)
	}

	sort.Slice(trigrams, func(i, j int) bool {
		if counts[trigrams[i]] != counts[trigrams[j]] {
			return counts[trigrams[i]] > counts[trigrams[j]]
		}
		return trigrams[i] < trigrams[j]
	})

	if len(trigrams) > n {
		trigrams = trigrams[:n]
	}
	return trigrams
}

// normalizeTokens lowercases, NFKC-normalizes, strips punctuation, and
// splits the text into tokens.
func normalizeTokens(text string) []string {
	normalized := norm.NFKC.String(strings.ToLower(text))

	var sb strings.Builder
	sb.Grow(len(normalized))
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	return strings.Fields(sb.String())
}

// matchingRunes counts characters covered by matching blocks between a
// and b: the longest common substring is found, then the regions to its
// left and right are matched recursively.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	aStart, bStart, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}

	matched := size
	matched += matchingRunes(a[:aStart], b[:bStart])
	matched += matchingRunes(a[aStart+size:], b[bStart+size:])
	return matched
}

func longestCommonSubstring(a, b []rune) (aStart, bStart, size int) {
	// prev[j] holds the length of the common suffix ending at a[i-1], b[j-1]
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					aStart = i - size
					bStart = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return aStart, bStart, size
}
