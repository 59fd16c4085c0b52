package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anamnezgpt/backend/internal/config"
)

var (
	// ErrEmptyTranscription marks audio that transcribed to nothing, e.g.
	// silence. Callers prompt the user to retry instead of showing an error.
	ErrEmptyTranscription = errors.New("transcription produced no text")
	// ErrNotConfigured is returned when no speech credentials are present.
	ErrNotConfigured = errors.New("speech service is not configured")
)

// initialPrompt primes the speech model for the clinical interview domain.
const initialPrompt = "Bu bir profesyonel klinik görüşmedir. " +
	"Lütfen standart İstanbul Türkçesi ile transkripsiyon yap. " +
	"Argo, yerel ağız veya dini kalıplardan kaçın."

const tempFilePattern = "anamnez-asr-*"

// Service converts audio blobs to text through a Whisper-compatible
// transcription endpoint. The HTTP client is built lazily on first use and
// shared by every connection afterwards.
type Service struct {
	cfg      config.SpeechConfig
	initOnce sync.Once
	client   *http.Client
	endpoint string
}

// NewService returns an uninitialized transcriber; the first Transcribe call
// pays the setup cost.
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{cfg: cfg}
}

// Enabled reports whether transcription credentials are configured.
func (s *Service) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// init builds the shared client exactly once, also under concurrent first use.
func (s *Service) init() {
	s.initOnce.Do(func() {
		log.Printf("[speech] initializing transcription client model=%s", s.cfg.Model)
		s.client = &http.Client{Timeout: 120 * time.Second}
		s.endpoint = strings.TrimRight(s.cfg.BaseURL, "/") + "/audio/transcriptions"
	})
}

// Transcribe writes the audio to a temporary file that is removed on every
// exit path, sends it to the transcription endpoint and returns the trimmed
// text. Silent audio yields ErrEmptyTranscription rather than a failure.
func (s *Service) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	s.init()

	if format == "" {
		format = "webm"
	}

	tmp, err := os.CreateTemp("", tempFilePattern+"."+format)
	if err != nil {
		return "", fmt.Errorf("failed to create temp audio file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to buffer audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to flush audio: %w", err)
	}

	text, err := s.request(ctx, tmpPath, format)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranscription
	}
	return text, nil
}

func (s *Service) request(ctx context.Context, audioPath, format string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to reopen temp audio: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to copy audio: %w", err)
	}
	file.Close()

	fields := map[string]string{
		"model":       s.cfg.Model,
		"language":    s.cfg.Language,
		"prompt":      initialPrompt,
		"temperature": "0",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("failed to write %s field: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API error: status %d, body: %s", resp.StatusCode, payload)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return result.Text, nil
}
