package domain

import "time"

// SessionState models the push-to-talk lifecycle.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateRecording SessionState = "recording"
	SessionStateDraining  SessionState = "draining"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonRecordingStarted   SessionStateReason = "recording_started"
	SessionReasonTranscribing       SessionStateReason = "transcribing"
	SessionReasonTranscriptCopied   SessionStateReason = "transcript_copied"
	SessionReasonRecordingDiscarded SessionStateReason = "recording_discarded"
	SessionReasonNoTranscript       SessionStateReason = "no_transcript"
	SessionReasonCaptureFailed      SessionStateReason = "capture_failed"
	SessionReasonEncodeFailed       SessionStateReason = "encode_failed"
	SessionReasonEngineFailed       SessionStateReason = "engine_failed"
	SessionReasonEngineTimeout      SessionStateReason = "engine_timeout"
)

// Message renders a reason for logs and notifications.
func (r SessionStateReason) Message() string {
	switch r {
	case SessionReasonRecordingStarted:
		return "Recording started"
	case SessionReasonTranscribing:
		return "Recording stopped. Transcribing..."
	case SessionReasonTranscriptCopied:
		return "Transcript copied to clipboard"
	case SessionReasonRecordingDiscarded:
		return "Recording too short, discarded"
	case SessionReasonNoTranscript:
		return "No actionable transcript"
	case SessionReasonCaptureFailed:
		return "Audio capture failed"
	case SessionReasonEncodeFailed:
		return "WAV encoding failed"
	case SessionReasonEngineFailed:
		return "Transcription failed"
	case SessionReasonEngineTimeout:
		return "Transcription timed out"
	default:
		return string(r)
	}
}

// Device describes one capture device.
type Device struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	MaxInputChannels  int     `json:"maxInputChannels"`
	MaxOutputChannels int     `json:"maxOutputChannels"`
	DefaultSampleRate float64 `json:"defaultSampleRate"`
}

// EngineResult is the raw outcome of one engine subprocess invocation.
type EngineResult struct {
	Text    string
	Elapsed time.Duration
}

// TranscriptionRecord is the persisted unit, one file per transcription.
type TranscriptionRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Transcription   string    `json:"transcription"`
	DurationSeconds float64   `json:"duration_seconds"`
	AudioDevice     *int      `json:"audio_device"`
	ModelPath       *string   `json:"model_path"`
}

// CycleResult summarizes one completed press-to-delivery cycle.
type CycleResult struct {
	Transcript string
	Duration   time.Duration
	Delivered  bool
	Reason     SessionStateReason
}
