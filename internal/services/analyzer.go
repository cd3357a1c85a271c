package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"tubedigest-backend/internal/models"
)

// AISummaryBudget caps full LLM treatment within any channel batch. The
// newest videos get the budget; the remainder are demoted to basic info.
const AISummaryBudget = 3

// EmitFunc receives analysis events in order. A sequence is zero or more
// progress events followed by exactly one terminal result or error event.
type EmitFunc func(models.ProgressEvent)

// Extractor is the slice of the YouTube service the orchestrator needs.
type Extractor interface {
	GetVideoInfo(ctx context.Context, url string) (*models.VideoRef, error)
	GetChannelVideos(ctx context.Context, channelURL string, limit int, since time.Time) ([]models.VideoRef, error)
	GetTranscript(ctx context.Context, videoID string) (Transcript, bool)
}

// AnalyzerService orchestrates extraction and summarization and reports
// progress to the caller.
type AnalyzerService struct {
	youtube    Extractor
	summarizer Summarizer
}

func NewAnalyzerService(youtube Extractor, summarizer Summarizer) *AnalyzerService {
	return &AnalyzerService{
		youtube:    youtube,
		summarizer: summarizer,
	}
}

// AnalyzeVideo runs the single-video pipeline, emitting progress and exactly
// one terminal event. The returned result mirrors the terminal result event;
// it is nil when the terminal event was an error.
func (s *AnalyzerService) AnalyzeVideo(ctx context.Context, url string, emit EmitFunc) (*models.AnalysisResult, error) {
	const total = 3

	emit(models.NewProgress("Extracting video information", 1, total))
	video, err := s.youtube.GetVideoInfo(ctx, url)
	if err != nil {
		emit(models.ProgressEvent{Type: models.EventError, Message: err.Error()})
		return nil, err
	}

	emit(models.NewProgress(fmt.Sprintf("Fetching transcript for %q", video.Title), 2, total))
	transcript, hasTranscript := s.youtube.GetTranscript(ctx, video.ID)

	emit(models.NewProgress("Generating summary", 3, total))
	result := s.summarizeVideo(ctx, *video, transcript.Text, hasTranscript)

	emit(models.ProgressEvent{Type: models.EventResult, Data: result})
	return &result, nil
}

// AnalyzeChannel runs the channel pipeline: list up to limit recent videos,
// then analyze each, spending the AI budget on the newest ones. Individual
// video failures are skipped; only failure to resolve the channel itself is
// terminal-error.
func (s *AnalyzerService) AnalyzeChannel(ctx context.Context, url string, limit int, emit EmitFunc) ([]models.AnalysisResult, error) {
	emit(models.NewProgress("Resolving channel and listing recent videos", 0, 1))

	videos, err := s.youtube.GetChannelVideos(ctx, url, limit, time.Time{})
	if err != nil {
		emit(models.ProgressEvent{Type: models.EventError, Message: err.Error()})
		return nil, err
	}

	results := s.analyzeBatch(ctx, videos, emit)

	emit(models.ProgressEvent{Type: models.EventResult, Data: results})
	return results, nil
}

// CheckChannelUpdates is the scheduler's entry point: list videos published
// after since (zero since means the listing default window) and analyze them
// with the same budget rules, without progress reporting.
func (s *AnalyzerService) CheckChannelUpdates(ctx context.Context, channelURL string, since time.Time) ([]models.AnalysisResult, error) {
	videos, err := s.youtube.GetChannelVideos(ctx, channelURL, MaxChannelLimit, since)
	if err != nil {
		return nil, err
	}
	return s.analyzeBatch(ctx, videos, nil), nil
}

// analyzeBatch processes an ordered (newest-first) video list. The first
// AISummaryBudget videos get full treatment; the rest get basic info. A nil
// emit suppresses progress events.
func (s *AnalyzerService) analyzeBatch(ctx context.Context, videos []models.VideoRef, emit EmitFunc) []models.AnalysisResult {
	total := len(videos)
	results := make([]models.AnalysisResult, 0, total)

	for i, video := range videos {
		if emit != nil {
			emit(models.NewProgress(fmt.Sprintf("Analyzing video %d of %d: %s", i+1, total, video.Title), i+1, total))
		}

		if i < AISummaryBudget {
			transcript, hasTranscript := s.youtube.GetTranscript(ctx, video.ID)
			results = append(results, s.summarizeVideo(ctx, video, transcript.Text, hasTranscript))
		} else {
			results = append(results, basicInfoResult(video))
		}
	}

	return results
}

// summarizeVideo attempts full AI treatment and demotes to basic info when the
// summarizer fails. Summarization failure never fails the video.
func (s *AnalyzerService) summarizeVideo(ctx context.Context, video models.VideoRef, transcript string, hasTranscript bool) models.AnalysisResult {
	summary, err := s.summarizer.GenerateSummary(ctx, video, transcript)
	if err != nil {
		log.Printf("Demoting %s to basic info: %v", video.ID, err)
		return basicInfoResult(video)
	}

	return models.AnalysisResult{
		Video:          video,
		Summary:        summary,
		UsedTranscript: hasTranscript,
		Tier:           models.TierFullAI,
	}
}

func basicInfoResult(video models.VideoRef) models.AnalysisResult {
	return models.AnalysisResult{
		Video:          video,
		Summary:        BasicInfoSummary(video),
		UsedTranscript: false,
		Tier:           models.TierBasicInfo,
	}
}
