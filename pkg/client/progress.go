package client

import (
	"github.com/mborgeson/portfolio-reports-api/internal/dto"
	"github.com/mborgeson/portfolio-reports-api/internal/models"
)

// Phase is the presentation-level state derived from a job status.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseGenerating   Phase = "generating"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
)

const failedFallbackMessage = "Report generation failed. Please try again."

// StageView is one entry of the staged generation checklist. Stages light up
// at fixed progress thresholds; the thresholds are a display convention, not
// values the server promises to report exactly.
type StageView struct {
	Label     string
	Threshold int
	Done      bool
}

// ProgressView is everything a caller needs to render job progress.
type ProgressView struct {
	Phase       Phase
	Progress    int
	Message     string
	Stages      []StageView
	DownloadURL string
	CanRetry    bool
}

var generationStages = []StageView{
	{Label: "Collecting portfolio data", Threshold: 10},
	{Label: "Building report sections", Threshold: 40},
	{Label: "Rendering document", Threshold: 70},
	{Label: "Finalizing", Threshold: 100},
}

// Present maps a polled job status onto a ProgressView.
func Present(job *dto.ReportStatusResponse) ProgressView {
	if job == nil {
		return ProgressView{Phase: PhaseInitializing, Message: "Initializing...", Stages: stagesAt(0)}
	}
	switch job.Status {
	case models.JobStatusCompleted:
		view := ProgressView{
			Phase:    PhaseCompleted,
			Progress: 100,
			Message:  "Report ready",
			Stages:   stagesAt(100),
		}
		if job.DownloadURL != nil {
			view.DownloadURL = *job.DownloadURL
		}
		return view
	case models.JobStatusFailed:
		message := failedFallbackMessage
		if job.Error != nil && *job.Error != "" {
			message = *job.Error
		}
		return ProgressView{
			Phase:    PhaseFailed,
			Progress: job.Progress,
			Message:  message,
			Stages:   stagesAt(job.Progress),
			CanRetry: true,
		}
	case models.JobStatusGenerating:
		return ProgressView{
			Phase:    PhaseGenerating,
			Progress: job.Progress,
			Message:  "Generating report...",
			Stages:   stagesAt(job.Progress),
		}
	default:
		return ProgressView{
			Phase:    PhaseInitializing,
			Progress: job.Progress,
			Message:  "Initializing...",
			Stages:   stagesAt(job.Progress),
		}
	}
}

// PresentSubmitError renders a submission failure that produced no job. It
// displays like a failed job but retry must resubmit instead of re-polling.
func PresentSubmitError(message string) ProgressView {
	if message == "" {
		message = failedFallbackMessage
	}
	return ProgressView{
		Phase:    PhaseFailed,
		Message:  message,
		Stages:   stagesAt(0),
		CanRetry: true,
	}
}

func stagesAt(progress int) []StageView {
	stages := make([]StageView, len(generationStages))
	copy(stages, generationStages)
	for i := range stages {
		stages[i].Done = progress >= stages[i].Threshold
	}
	return stages
}
