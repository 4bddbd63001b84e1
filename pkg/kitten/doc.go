// Package kitten implements an on-device text-to-speech engine for the
// KittenTTS family of ONNX models.
//
// The pipeline is:
//
//	text -> Phonemizer -> Tokenize -> (VoiceSet) -> Model -> post-process -> Utterance
//
// An [Engine] owns every loaded resource. It is created with [New], made
// ready with [Engine.Init], and then serves [Engine.Synthesize] and
// [Engine.Speak] calls. Inference is serialized inside the engine, so an
// Engine may be shared between goroutines.
//
// Post-processing never fails a request. When the output validator rejects
// the primary backend's waveform the engine retries on the fallback backend;
// any remaining non-finite samples are replaced with silence and very quiet
// output is normalized. These recoveries are reported through an [Observer]
// rather than as errors.
//
// The ONNX Runtime implementation of [Model] lives in package ortmodel so
// that this package builds without cgo.
package kitten
