package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

var (
	// ErrNoTextContent indicates the submission has neither typed text nor a readable file.
	ErrNoTextContent = errors.New("no text content")
	// ErrPDFUnsupported indicates the uploaded file is a PDF.
	ErrPDFUnsupported = errors.New("pdf files are not supported")
	// ErrUnsupportedFile indicates the uploaded file is not plain text.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrFileUnavailable indicates the uploaded file could not be downloaded.
	ErrFileUnavailable = errors.New("submission file unavailable")
	// ErrFileTooLarge indicates the uploaded file exceeds the download limit.
	ErrFileTooLarge = errors.New("submission file too large")
)

// SubmissionTextExtractor turns a submission into plain text suitable for prompting.
type SubmissionTextExtractor struct {
	files    FileURLPolicy
	client   *http.Client
	maxBytes int64
	policy   *bluemonday.Policy
}

// NewSubmissionTextExtractor builds an extractor that only fetches links the file policy accepts.
func NewSubmissionTextExtractor(files FileURLPolicy, timeout time.Duration, maxBytes int64) *SubmissionTextExtractor {
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &SubmissionTextExtractor{
		files:    files,
		client:   files.Client(timeout),
		maxBytes: maxBytes,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Typed returns the typed answer with markup stripped.
func (e *SubmissionTextExtractor) Typed(submission models.Submission) string {
	return e.sanitize(submission.Text())
}

// Extract prefers typed content and falls back to downloading the uploaded file.
func (e *SubmissionTextExtractor) Extract(ctx context.Context, submission models.Submission) (string, error) {
	if text := e.Typed(submission); text != "" {
		return text, nil
	}

	if !submission.HasFile() {
		return "", ErrNoTextContent
	}

	data, err := e.download(ctx, strings.TrimSpace(*submission.FileURL))
	if err != nil {
		return "", err
	}

	detected := mimetype.Detect(data)
	if detected.Is("application/pdf") {
		return "", ErrPDFUnsupported
	}
	if !isText(detected) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, detected.String())
	}

	text := e.sanitize(string(data))
	if text == "" {
		return "", ErrNoTextContent
	}
	return text, nil
}

func (e *SubmissionTextExtractor) download(ctx context.Context, url string) ([]byte, error) {
	if err := e.files.Check(url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrFileURLNotAllowed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrFileUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// sanitize strips markup; the strict policy escapes entities, which prompts do not need.
func (e *SubmissionTextExtractor) sanitize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(text)))
}

func isText(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
