package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/drawloop/internal/application"
	"github.com/bnema/drawloop/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

type Options struct {
	// ShowPrograms prints the DSL program under each step and attempt.
	ShowPrograms bool
}

func RenderRun(report application.RunReport, opts Options) (string, error) {
	return render(func(s styles) string {
		return runView(report, opts, s)
	})
}

func RenderExploration(report application.ExplorationReport, opts Options) (string, error) {
	return render(func(s styles) string {
		return explorationView(report, opts, s)
	})
}

func RenderCorpus(stats []domain.CorpusStats) (string, error) {
	return render(func(s styles) string {
		return corpusView(stats, s)
	})
}

// RenderExamples lists records of one bucket in stored order.
func RenderExamples(bucket string, records []domain.ExampleRecord, opts Options) (string, error) {
	return render(func(s styles) string {
		return examplesView(bucket, records, opts, s)
	})
}

func RenderHistory(runs []domain.RunSummary) (string, error) {
	return render(func(s styles) string {
		return historyView(runs, s)
	})
}

func runView(report application.RunReport, opts Options, s styles) string {
	sum := report.Summary
	lines := []string{
		s.title.Render("Drawloop Run"),
		s.header.Render(fmt.Sprintf("inputs: %d  accepted: %d  rejected: %d  skipped: %d  duration: %s",
			sum.Processed, sum.Accepted, sum.Rejected, sum.Skipped, formatDuration(sum.Duration()))),
		ratioLine("acceptance", sum.Accepted, sum.Processed, s),
	}

	if len(report.Steps) == 0 {
		lines = append(lines, s.empty.Render("No inputs processed."))
	}

	steps := make([]string, 0, len(report.Steps))
	for _, step := range report.Steps {
		steps = append(steps, stepLines(step, opts, s)...)
	}
	if len(steps) > 0 {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, steps...)))
	}

	lines = append(lines, s.section.Render(s.label.Render(fmt.Sprintf("exploration: %d attempts, %d accepted, %d failed",
		sum.ExplorationAttempts, sum.ExplorationAccepted, sum.ExplorationFailed))))
	if sum.Curated > 0 {
		lines = append(lines, s.detail.Render(fmt.Sprintf("curated: %d", sum.Curated)))
	}
	if sum.PersistenceFailures > 0 {
		lines = append(lines, s.warning.Render(fmt.Sprintf("[%d persistence failures]", sum.PersistenceFailures)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func stepLines(step application.StepResult, opts Options, s styles) []string {
	head := fmt.Sprintf("#%d %s %q", step.Index+1, outcomeStyle(string(step.Outcome), s).Render(string(step.Outcome)), step.Intent)

	switch {
	case step.Outcome == application.OutcomeSkipped:
		head += " " + s.detail.Render("("+step.Reason+")")
	case step.Decision != nil:
		head += " " + s.detail.Render(decisionText(*step.Decision))
	}
	if step.CuratedInto != "" {
		head += " " + s.label.Render("-> "+step.CuratedInto)
	}
	if step.Outcome == application.OutcomeAccepted && !step.Persisted {
		head += " " + s.warning.Render("[not saved]")
	}

	lines := []string{head}
	if step.Description != "" {
		lines = append(lines, s.detail.Render("   seen: "+step.Description))
	}
	if opts.ShowPrograms && step.Program != "" {
		lines = append(lines, programLines(step.Program, s)...)
	}

	return lines
}

func explorationView(report application.ExplorationReport, opts Options, s styles) string {
	lines := []string{
		s.title.Render("Exploration"),
		s.header.Render(fmt.Sprintf("attempts: %d  accepted: %d  rejected: %d  failed: %d",
			len(report.Attempts), report.Accepted, report.Rejected, report.Failed)),
		ratioLine("accepted", report.Accepted, len(report.Attempts), s),
	}

	if len(report.Attempts) == 0 {
		lines = append(lines, s.empty.Render("No attempts made."))
	}

	attempts := make([]string, 0, len(report.Attempts))
	for _, attempt := range report.Attempts {
		attempts = append(attempts, attemptLines(attempt, opts, s)...)
	}
	if len(attempts) > 0 {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, attempts...)))
	}

	stats := report.Stats
	lines = append(lines, s.section.Render(s.label.Render(fmt.Sprintf("corpus %s: %d examples, %d exploratory (%.0f%%)",
		bucketName(stats.Bucket), stats.TotalExamples, stats.ExploratoryCount, stats.ExploratoryRatio*100))))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func attemptLines(attempt application.AttemptResult, opts Options, s styles) []string {
	var head string
	switch {
	case attempt.Failed():
		head = fmt.Sprintf("#%d %s %s", attempt.Index+1, s.skipped.Render("failed"), s.detail.Render("("+attempt.Reason+")"))
	case attempt.Accepted():
		head = fmt.Sprintf("#%d %s %q %s", attempt.Index+1, s.accepted.Render("accepted"), attempt.Record.Intent,
			s.detail.Render(fmt.Sprintf("confidence %.2f", attempt.Caption.Confidence)))
		if !attempt.Persisted {
			head += " " + s.warning.Render("[not saved]")
		}
	default:
		head = fmt.Sprintf("#%d %s %s", attempt.Index+1, s.rejected.Render("rejected"),
			s.detail.Render(fmt.Sprintf("confidence %.2f", attempt.Caption.Confidence)))
	}

	lines := []string{head}
	if attempt.Caption.Text != "" {
		lines = append(lines, s.detail.Render("   seen: "+attempt.Caption.Text))
	}
	if opts.ShowPrograms && attempt.Program != "" {
		lines = append(lines, programLines(attempt.Program, s)...)
	}

	return lines
}

func corpusView(stats []domain.CorpusStats, s styles) string {
	lines := []string{
		s.title.Render("Corpus"),
		s.header.Render(fmt.Sprintf("buckets: %d", len(stats))),
	}

	if len(stats) == 0 {
		lines = append(lines, s.empty.Render("No examples stored."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, bucket := range stats {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			s.title.Render(bucketName(bucket.Bucket)),
			s.detail.Render(fmt.Sprintf("examples: %d  supervised: %d  exploratory: %d",
				bucket.TotalExamples, bucket.SupervisedCount, bucket.ExploratoryCount)),
			ratioLine("exploratory", bucket.ExploratoryCount, bucket.TotalExamples, s),
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func examplesView(bucket string, records []domain.ExampleRecord, opts Options, s styles) string {
	lines := []string{
		s.title.Render("Examples: " + bucketName(bucket)),
		s.header.Render(fmt.Sprintf("examples: %d", len(records))),
	}

	if len(records) == 0 {
		lines = append(lines, s.empty.Render("No examples stored."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	entries := make([]string, 0, len(records))
	for i, record := range records {
		source := domain.SourceSupervised
		if record.IsExploratory() {
			source = domain.SourceExploratory
		}
		entries = append(entries, fmt.Sprintf("#%d %s %q", i+1, s.label.Render(string(source)), record.Intent))
		if record.Description != "" {
			entries = append(entries, s.detail.Render("   seen: "+record.Description))
		}
		if opts.ShowPrograms {
			entries = append(entries, programLines(record.DSL, s)...)
		}
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, entries...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func historyView(runs []domain.RunSummary, s styles) string {
	lines := []string{
		s.title.Render("Run History"),
		s.header.Render(fmt.Sprintf("runs: %d", len(runs))),
	}

	if len(runs) == 0 {
		lines = append(lines, s.empty.Render("No runs recorded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		line := fmt.Sprintf("%s  %s  %s",
			s.label.Render(formatStarted(run.StartedAt)),
			s.detail.Render(fmt.Sprintf("inputs %d, accepted %d, rejected %d, skipped %d, explored %d/%d",
				run.Processed, run.Accepted, run.Rejected, run.Skipped, run.ExplorationAccepted, run.ExplorationAttempts)),
			s.header.Render(formatDuration(run.Duration())),
		)
		if run.PersistenceFailures > 0 {
			line += " " + s.warning.Render(fmt.Sprintf("[%d not saved]", run.PersistenceFailures))
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func programLines(program string, s styles) []string {
	var lines []string
	for _, line := range strings.Split(program, "\n") {
		lines = append(lines, s.empty.Render("     "+line))
	}
	return lines
}

func outcomeStyle(outcome string, s styles) lipgloss.Style {
	switch outcome {
	case string(application.OutcomeAccepted):
		return s.accepted
	case string(application.OutcomeRejected):
		return s.rejected
	default:
		return s.skipped
	}
}

func decisionText(d domain.Decision) string {
	op := "<"
	if d.Accepted() {
		op = ">="
	}
	return fmt.Sprintf("(%s %.2f %s %.2f)", d.Kind, d.Score, op, d.Threshold)
}

func ratioLine(label string, part, total int, s styles) string {
	percent := 0.0
	if total > 0 {
		percent = float64(part) / float64(total) * 100
	}

	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(percent, 0, 100))
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render(label+":"),
		" ",
		renderProgressBar(percent, barWidth, s),
		" ",
		percentStyle.Render(fmt.Sprintf("%3.0f%%", percent)),
	)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}

func bucketName(bucket string) string {
	if bucket == "" {
		return domain.DefaultBucket
	}
	return bucket
}

func formatStarted(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("02 Jan 15:04")
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
