package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"github.com/mmcdole/gofeed"

	"tubedigest-backend/internal/models"
)

const (
	// Channel listing limits; out-of-range requests are clamped, not rejected.
	MinChannelLimit = 3
	MaxChannelLimit = 15

	// Transcripts are truncated before prompting to bound LLM input size.
	maxTranscriptRunes  = 3000
	maxDescriptionRunes = 500
)

// Transcript holds one extracted caption track. Absence of a transcript is a
// valid terminal state, reported through the ok flag rather than an error.
type Transcript struct {
	Text     string
	Language string
}

type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
	feedParser    *gofeed.Parser
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
		feedParser:    gofeed.NewParser(),
	}
}

var (
	videoIDRegex     = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`)
	channelIDRegex   = regexp.MustCompile(`/channel/(UC[\w-]{22})`)
	pageChannelIDRe  = regexp.MustCompile(`"channelId"\s*:\s*"(UC[\w-]{22})"`)
	pageExternalIDRe = regexp.MustCompile(`"externalId"\s*:\s*"(UC[\w-]{22})"`)
)

// IsChannelURL distinguishes channel URLs from video URLs by path shape alone,
// without network access. Channel indicators: an @handle, /channel/, /c/ or
// /user/ path segment.
func IsChannelURL(rawURL string) bool {
	if videoIDRegex.MatchString(rawURL) {
		return false
	}
	return strings.Contains(rawURL, "/@") ||
		strings.Contains(rawURL, "/channel/") ||
		strings.Contains(rawURL, "/c/") ||
		strings.Contains(rawURL, "/user/")
}

// ExtractVideoID pulls the 11-character video ID out of any supported video
// URL form (watch, youtu.be, embed, shorts).
func ExtractVideoID(rawURL string) (string, bool) {
	matches := videoIDRegex.FindStringSubmatch(rawURL)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// ClampChannelLimit bounds a requested channel listing size to [3,15].
func ClampChannelLimit(limit int) int {
	if limit < MinChannelLimit {
		return MinChannelLimit
	}
	if limit > MaxChannelLimit {
		return MaxChannelLimit
	}
	return limit
}

// GetVideoInfo extracts metadata for a single video URL or bare video ID.
func (s *YouTubeService) GetVideoInfo(ctx context.Context, rawURL string) (*models.VideoRef, error) {
	id, ok := ExtractVideoID(rawURL)
	if !ok {
		// kkdai accepts bare 11-character IDs as well
		if len(rawURL) == 11 && !strings.ContainsAny(rawURL, "/?&") {
			id = rawURL
		} else {
			return nil, &NotFoundError{URL: rawURL, Reason: "not a recognized YouTube video URL"}
		}
	}

	video, err := s.ytClient.GetVideoContext(ctx, id)
	if err != nil {
		return nil, &NotFoundError{URL: rawURL, Reason: err.Error()}
	}

	ref := &models.VideoRef{
		ID:          video.ID,
		URL:         fmt.Sprintf("https://www.youtube.com/watch?v=%s", video.ID),
		Title:       video.Title,
		Description: truncateRunes(video.Description, maxDescriptionRunes),
		Duration:    int(video.Duration.Seconds()),
		Thumbnail:   bestThumbnail(video),
		PublishedAt: video.PublishDate.UTC(),
	}
	return ref, nil
}

// GetChannelVideos lists a channel's most recent uploads, newest first,
// hydrated with per-video metadata. A non-zero since stops collection at the
// first video published at or before it; limit is clamped to [3,15]. A single
// video failing to extract is logged and skipped, never fatal to the batch.
func (s *YouTubeService) GetChannelVideos(ctx context.Context, channelURL string, limit int, since time.Time) ([]models.VideoRef, error) {
	limit = ClampChannelLimit(limit)

	channelID, err := s.resolveChannelID(ctx, channelURL)
	if err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf("https://www.youtube.com/feeds/videos.xml?channel_id=%s", channelID)
	feed, err := s.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, &NotFoundError{URL: channelURL, Reason: fmt.Sprintf("channel feed unavailable: %v", err)}
	}

	entries := append([]*gofeed.Item(nil), feed.Items...)
	sort.SliceStable(entries, func(i, j int) bool {
		return feedItemTime(entries[i]).After(feedItemTime(entries[j]))
	})

	videos := make([]models.VideoRef, 0, limit)
	for _, entry := range entries {
		if len(videos) >= limit {
			break
		}

		published := feedItemTime(entry)
		if !since.IsZero() && !published.After(since) {
			// Entries are newest-first; everything below is older still.
			break
		}

		videoID := feedVideoID(entry)
		if videoID == "" {
			log.Printf("Skipping channel feed entry without a video ID: %q", entry.Title)
			continue
		}

		ref, err := s.GetVideoInfo(ctx, fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID))
		if err != nil {
			log.Printf("Skipping video in channel batch: %v", &ExtractionError{VideoID: videoID, Err: err})
			continue
		}
		videos = append(videos, *ref)
	}

	return videos, nil
}

// resolveChannelID turns any channel URL form into a canonical UC… channel ID.
// /channel/ URLs resolve without network access; handle and vanity URLs are
// resolved by scraping the channel page.
func (s *YouTubeService) resolveChannelID(ctx context.Context, channelURL string) (string, error) {
	if m := channelIDRegex.FindStringSubmatch(channelURL); len(m) > 1 {
		return m[1], nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, channelURL, nil)
	if err != nil {
		return "", &NotFoundError{URL: channelURL, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &NotFoundError{URL: channelURL, Reason: fmt.Sprintf("failed to fetch channel page: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &NotFoundError{URL: channelURL, Reason: fmt.Sprintf("channel page returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NotFoundError{URL: channelURL, Reason: fmt.Sprintf("failed to read channel page: %v", err)}
	}

	pageHTML := string(body)
	if m := pageExternalIDRe.FindStringSubmatch(pageHTML); len(m) > 1 {
		return m[1], nil
	}
	if m := pageChannelIDRe.FindStringSubmatch(pageHTML); len(m) > 1 {
		return m[1], nil
	}

	return "", &NotFoundError{URL: channelURL, Reason: "no channel ID found on channel page"}
}

// GetTranscript fetches captions for a video, preferring English tracks and
// degrading through any-language and a timedtext page-scrape fallback. A video
// without captions returns ok=false; transcript absence is never an error.
func (s *YouTubeService) GetTranscript(ctx context.Context, videoID string) (Transcript, bool) {
	language := "en"
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		// Fallback: request any available language
		language = "und"
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacyText, legacyErr := s.getTranscriptViaTimedText(ctx, videoID)
			if legacyErr == nil && legacyText != "" {
				return Transcript{Text: truncateTranscript(legacyText), Language: "und"}, true
			}
			log.Printf("No transcript for %s: transcript API (%v), timedtext fallback (%v)", videoID, err, legacyErr)
			return Transcript{}, false
		}
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return Transcript{}, false
	}

	return Transcript{Text: truncateTranscript(cleaned), Language: language}, true
}

func (s *YouTubeService) getTranscriptViaTimedText(ctx context.Context, videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}

	captionURL, err := extractCaptionURL(string(body))
	if err != nil {
		return "", err
	}

	captionResp, err := s.httpClient.Get(captionURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer captionResp.Body.Close()

	if captionResp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("rate limited on caption fetch")
	}

	captionBody, err := io.ReadAll(captionResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	text, err := parseCaptionsXML(captionBody)
	if err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}

	return text, nil
}

func extractCaptionURL(pageHTML string) (string, error) {
	re := regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	matches := re.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		return "", fmt.Errorf("no captions available for this video")
	}

	tracksJSON := matches[1]
	reURL := regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
	urlMatches := reURL.FindStringSubmatch(tracksJSON)
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := urlMatches[1]
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")

	return u, nil
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tt.Texts {
		text := html.UnescapeString(t.Text)
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}

	return strings.Join(parts, " "), nil
}

func bestThumbnail(video *yt.Video) string {
	best := ""
	bestWidth := uint(0)
	for _, t := range video.Thumbnails {
		if t.URL != "" && t.Width >= bestWidth {
			best = t.URL
			bestWidth = t.Width
		}
	}
	if best == "" {
		best = fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", video.ID)
	}
	return best
}

func feedItemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

func feedVideoID(item *gofeed.Item) string {
	if id, ok := strings.CutPrefix(item.GUID, "yt:video:"); ok {
		return id
	}
	if id, ok := ExtractVideoID(item.Link); ok {
		return id
	}
	return ""
}

func truncateTranscript(text string) string {
	if len([]rune(text)) <= maxTranscriptRunes {
		return text
	}
	return string([]rune(text)[:maxTranscriptRunes]) + "... (transcript truncated)"
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
