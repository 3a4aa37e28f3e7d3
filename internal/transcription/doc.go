// Package transcription turns extracted audio into plain text.
//
// A Transcriber resolves a Model for the requested size through a ModelCache
// and runs it once per audio file. Models come from a ModelProvider:
//   - CLIProvider runs the openai-whisper command line tool locally
//   - RemoteProvider publishes audio to a transcription service and polls it
//   - OpenAIProvider calls the hosted Whisper API
//
// The cache is process-wide in practice but is always injected, so tests swap
// the provider for a fake.
package transcription
