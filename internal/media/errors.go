// SPDX-License-Identifier: MIT

package media

import "errors"

// Stage failures. They all collapse to one user-facing reply, but stay
// distinguishable for logs and metrics via errors.Is.
var (
	ErrDownload      = errors.New("download failed")
	ErrTranscode     = errors.New("transcode failed")
	ErrTranscription = errors.New("transcription service failed")
	ErrNoSpeech      = errors.New("no speech recognized")
)

// Stage names a phase of a transcription job.
type Stage string

const (
	StageDownloading  Stage = "downloading"
	StageTranscoding  Stage = "transcoding"
	StageTranscribing Stage = "transcribing"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)
