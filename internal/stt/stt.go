// Package stt adapts the Vosk incremental speech recognizer to the
// pipeline's decoder contract: feed 16-bit mono PCM at the target rate,
// observe partial and final transcriptions.
package stt

// Recognizer is the incremental recognizer surface the audio pipeline
// consumes. AcceptWaveform reports whether the submitted chunk completed an
// utterance; Result then carries the final transcription. PartialResult is
// advisory. FinalResult flushes any remaining audio into a transcription.
type Recognizer interface {
	AcceptWaveform(buf []byte) (bool, error)
	Result() string
	PartialResult() string
	FinalResult() string
	Close() error
}

// Factory builds one recognizer per connection. Recognizers hold decoding
// state and must not be shared across connections.
type Factory func() (Recognizer, error)
