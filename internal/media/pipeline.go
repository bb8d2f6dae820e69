// SPDX-License-Identifier: MIT

// Package media turns a remote voice attachment into recognized text
// through a four stage chain: download, transcode, transcribe, extract.
// Every staged file is owned exclusively by its job and is removed on every
// exit path, success or failure.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/zwlin/pagebot/internal/log"
	"github.com/zwlin/pagebot/internal/metrics"
	"github.com/zwlin/pagebot/internal/stt"
)

// Recognizer is the external speech recognition collaborator.
type Recognizer interface {
	Recognize(ctx context.Context, audio io.Reader) (stt.Result, error)
}

// Pipeline runs transcription jobs.
type Pipeline struct {
	http       *http.Client
	recognizer Recognizer
	transcoder Transcoder
	stagingDir string
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient overrides the download client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.http = c }
}

// New wires a pipeline. timeout bounds one whole job; zero disables the
// bound.
func New(recognizer Recognizer, transcoder Transcoder, stagingDir string, timeout time.Duration, opts ...Option) *Pipeline {
	p := &Pipeline{
		http:       &http.Client{Timeout: 30 * time.Second},
		recognizer: recognizer,
		transcoder: transcoder,
		stagingDir: stagingDir,
		timeout:    timeout,
		logger:     log.WithComponent("media"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Transcribe fetches the attachment at sourceURL and returns its
// transcript. On failure the returned error matches exactly one of the
// stage sentinels.
func (p *Pipeline) Transcribe(ctx context.Context, jobID, sourceURL string) (text string, err error) {
	start := time.Now()
	defer func() { metrics.ObservePipelineDuration(time.Since(start).Seconds()) }()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	logger := p.logger.With().
		Str(log.FieldJobID, jobID).
		Str(log.FieldSourceURL, sourceURL).
		Logger()

	stage := func(s Stage) {
		logger.Debug().Str(log.FieldStage, string(s)).Msg("pipeline stage")
	}

	stage(StageDownloading)
	srcPath, err := p.download(ctx, sourceURL)
	if err != nil {
		metrics.RecordPipelineStage(string(StageDownloading), "error")
		logger.Warn().Err(err).Str(log.FieldStage, string(StageFailed)).Msg("download failed")
		return "", err
	}
	defer p.release(srcPath)
	metrics.RecordPipelineStage(string(StageDownloading), "ok")

	stage(StageTranscoding)
	wavPath, err := p.transcode(ctx, srcPath)
	if err != nil {
		metrics.RecordPipelineStage(string(StageTranscoding), "error")
		logger.Warn().Err(err).Str(log.FieldStage, string(StageFailed)).Msg("transcode failed")
		return "", err
	}
	defer p.release(wavPath)
	metrics.RecordPipelineStage(string(StageTranscoding), "ok")

	stage(StageTranscribing)
	result, err := p.recognize(ctx, wavPath)
	if err != nil {
		metrics.RecordPipelineStage(string(StageTranscribing), "error")
		logger.Warn().Err(err).Str(log.FieldStage, string(StageFailed)).Msg("transcription failed")
		return "", err
	}
	metrics.RecordPipelineStage(string(StageTranscribing), "ok")

	transcript, err := extract(result)
	if err != nil {
		logger.Info().Err(err).Msg("nothing recognized")
		return "", err
	}

	stage(StageDone)
	return transcript, nil
}

// download fetches sourceURL into a staged file and returns its path. The
// file is removed before returning on any failure.
func (p *Pipeline) download(ctx context.Context, sourceURL string) (string, error) {
	f, err := os.CreateTemp(p.stagingDir, "pagebot-src-*")
	if err != nil {
		return "", fmt.Errorf("%w: stage file: %v", ErrDownload, err)
	}
	staged := false
	defer func() {
		_ = f.Close()
		if !staged {
			_ = os.Remove(f.Name())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	res, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrDownload, res.StatusCode)
	}
	if _, err := io.Copy(f, res.Body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	staged = true
	return f.Name(), nil
}

// transcode converts the downloaded container to WAV in a second staged
// file. The output file is removed before returning on any failure.
func (p *Pipeline) transcode(ctx context.Context, srcPath string) (string, error) {
	out, err := os.CreateTemp(p.stagingDir, "pagebot-*.wav")
	if err != nil {
		return "", fmt.Errorf("%w: stage file: %v", ErrTranscode, err)
	}
	_ = out.Close()

	if err := p.transcoder.Transcode(ctx, srcPath, out.Name()); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("%w: %v", ErrTranscode, err)
	}

	info, err := os.Stat(out.Name())
	if err != nil || info.Size() == 0 {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("%w: no output produced", ErrTranscode)
	}
	return out.Name(), nil
}

func (p *Pipeline) recognize(ctx context.Context, wavPath string) (stt.Result, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return stt.Result{}, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	defer func() { _ = f.Close() }()

	result, err := p.recognizer.Recognize(ctx, f)
	if err != nil {
		return stt.Result{}, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	return result, nil
}

// extract picks the top alternative of the top result.
func extract(r stt.Result) (string, error) {
	if len(r.Results) == 0 || len(r.Results[0].Alternatives) == 0 {
		return "", ErrNoSpeech
	}
	return r.Results[0].Alternatives[0].Transcript, nil
}

func (p *Pipeline) release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn().Err(err).Str(log.FieldStagedFile, path).Msg("staged file not released")
	}
}
