package cmd

import (
	"testing"
	"time"

	"github.com/bnema/drawloop/internal/application"
	"github.com/stretchr/testify/assert"
)

type stubProgress struct {
	progress application.Progress
}

func (s *stubProgress) Progress() application.Progress {
	return s.progress
}

func TestDescribeProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		progress application.Progress
		want     string
	}{
		{name: "idle", progress: application.Progress{State: application.StateIdle, Index: -1}, want: "Drawing 3 inputs..."},
		{name: "processing", progress: application.Progress{State: application.StateProcessingInput, Index: 1, Inputs: 3}, want: "Drawing input 2/3"},
		{name: "rejected", progress: application.Progress{State: application.StateRejected, Index: 2, Inputs: 3}, want: "Input 3/3 rejected"},
		{name: "exploring", progress: application.Progress{State: application.StateExploring, Index: 0, Inputs: 3, Batch: 4}, want: "Exploring 1/4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeProgress(tt.progress, "Drawing 3 inputs..."))
		})
	}
}

func TestProgressSpinnerPollsSourceOnTick(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)
	now := started
	source := &stubProgress{progress: application.Progress{State: application.StateIdle, Index: -1}}
	model := newProgressSpinnerModel("Exploring 2 programs...", source, func() time.Time { return now }, nil)
	assert.Contains(t, model.View(), "Exploring 2 programs...")

	source.progress = application.Progress{State: application.StateExploring, Index: 1, Batch: 2}
	now = started.Add(3500 * time.Millisecond)
	assert.Contains(t, model.View(), "Exploring 2 programs...")

	updated, _ := model.Update(model.spinner.Tick())
	view := updated.(progressSpinnerModel).View()
	assert.Contains(t, view, "Exploring 2/2")
	assert.Contains(t, view, "3s")

	done, _ := updated.Update(workDoneMsg{})
	assert.Empty(t, done.(progressSpinnerModel).View())
}
