package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

const DefaultBucket = "examples"

// ExactMatchBonus is added to the keyword score when query and intent are equal ignoring case.
const ExactMatchBonus = 10

type Source string

const (
	SourceSupervised  Source = "supervised"
	SourceExploratory Source = "exploratory"
)

func (s Source) Valid() bool {
	return s == SourceSupervised || s == SourceExploratory
}

type Provenance struct {
	Confidence   float64
	Source       Source
	CommandCount int
	ImagePath    string
	CreatedAt    time.Time
}

type ExampleRecord struct {
	Intent      string
	DSL         string
	Description string
	Provenance  *Provenance
}

func (r ExampleRecord) Validate() error {
	if strings.TrimSpace(r.Intent) == "" {
		return fmt.Errorf("example intent is empty")
	}
	if strings.TrimSpace(r.DSL) == "" {
		return fmt.Errorf("example dsl is empty")
	}
	if r.Provenance != nil && r.Provenance.Source != "" && !r.Provenance.Source.Valid() {
		return fmt.Errorf("unknown example source %q", r.Provenance.Source)
	}

	return nil
}

func (r ExampleRecord) IsExploratory() bool {
	return r.Provenance != nil && r.Provenance.Source == SourceExploratory
}

// Caption is what the captioning oracle reports for a rendered image.
type Caption struct {
	Text       string
	Confidence float64
}

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

func ValidateBucket(bucket string) error {
	if !bucketPattern.MatchString(bucket) {
		return fmt.Errorf("%w: %q", ErrInvalidBucket, bucket)
	}

	return nil
}

// AppendBounded appends record and drops the oldest entries beyond limit.
// A non-positive limit means unbounded.
func AppendBounded(records []ExampleRecord, record ExampleRecord, limit int) []ExampleRecord {
	out := make([]ExampleRecord, 0, len(records)+1)
	out = append(out, records...)
	out = append(out, record)
	if limit > 0 && len(out) > limit {
		out = slices.Clone(out[len(out)-limit:])
	}

	return out
}

// KeywordScore counts shared lowercase whitespace-separated words between the
// query and the candidate intent, plus ExactMatchBonus on an exact match.
func KeywordScore(query, candidate string) int {
	queryLower := strings.ToLower(query)
	candidateLower := strings.ToLower(candidate)

	candidateWords := map[string]struct{}{}
	for _, word := range strings.Fields(candidateLower) {
		candidateWords[word] = struct{}{}
	}

	seen := map[string]struct{}{}
	score := 0
	for _, word := range strings.Fields(queryLower) {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		if _, ok := candidateWords[word]; ok {
			score++
		}
	}

	if queryLower == candidateLower {
		score += ExactMatchBonus
	}

	return score
}

// TopK ranks records by KeywordScore descending. Ties keep insertion order.
func TopK(records []ExampleRecord, query string, k int) []ExampleRecord {
	if k <= 0 || len(records) == 0 {
		return nil
	}

	type scored struct {
		score  int
		record ExampleRecord
	}

	ranked := make([]scored, 0, len(records))
	for _, record := range records {
		ranked = append(ranked, scored{score: KeywordScore(query, record.Intent), record: record})
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return b.score - a.score
	})

	if k > len(ranked) {
		k = len(ranked)
	}

	out := make([]ExampleRecord, 0, k)
	for _, entry := range ranked[:k] {
		out = append(out, entry.record)
	}

	return out
}

// FormatFewShot renders examples as the few-shot block handed to the conversion oracle.
func FormatFewShot(records []ExampleRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Examples:\n")
	for i, record := range records {
		fmt.Fprintf(&b, "Example %d:\n", i+1)
		fmt.Fprintf(&b, "Input: %q\n", record.Intent)
		fmt.Fprintf(&b, "Output:\n%s\n", strings.TrimSpace(record.DSL))
	}

	return b.String()
}

type CorpusStats struct {
	Bucket           string  `json:"bucket"`
	TotalExamples    int     `json:"total_examples"`
	ExploratoryCount int     `json:"exploratory_examples"`
	SupervisedCount  int     `json:"supervised_examples"`
	ExploratoryRatio float64 `json:"exploratory_ratio"`
}

func ComputeStats(bucket string, records []ExampleRecord) CorpusStats {
	stats := CorpusStats{Bucket: bucket, TotalExamples: len(records)}
	for _, record := range records {
		if record.IsExploratory() {
			stats.ExploratoryCount++
		} else {
			stats.SupervisedCount++
		}
	}
	if stats.TotalExamples > 0 {
		stats.ExploratoryRatio = float64(stats.ExploratoryCount) / float64(stats.TotalExamples)
	}

	return stats
}
