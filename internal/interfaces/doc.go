// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and see how to implement new functionality.
//
// # Interface Categories
//
// ## Content Interfaces
//
//   - ContentStore: Read-only access to books and pages (internal/services/interfaces.go)
//   - BookStore: Persist books with their pages (internal/services/interfaces.go)
//   - AssetResolver: Map stored refs to URLs (internal/services/interfaces.go)
//
// ## Audio Interfaces
//
//   - Handle: A ready-to-play narration clip (internal/audio/clip.go)
//   - Output: Renders clip audio, may refuse to start (internal/audio/clip.go)
//   - Loader: Fetches a clip until fully buffered (internal/audio/loader.go)
//
// ## Playback Interfaces
//
//   - Scheduler / Timer: Timer source of a session (internal/playback/scheduler.go)
//   - Preloader / ClipSource: Clip loading and lookup (internal/playback/session.go)
//   - SessionManager: Session registry used by HTTP (internal/http/stores.go)
//
// # Adding a New Presentation Surface
//
// A surface opens a session through reader.Service, subscribes to snapshots and
// issues commands. It never touches session state directly:
//
//	session, err := readers.Open(ctx, bookID)
//	events, unsubscribe := session.Subscribe()
//	defer unsubscribe()
//
//	for snap := range events {
//	    render(snap)
//	}
//
// See internal/cli/play.go for a terminal surface and internal/http/sessions.go
// for the Server-Sent Events stream.
//
// # Adding a New Audio Output
//
// Implement audio.Output and pass it to audio.HTTPLoaderConfig:
//
//	type SpeakerOutput struct{ device *Device }
//
//	func (o *SpeakerOutput) Start(clip audio.Handle, offset time.Duration) error
//	func (o *SpeakerOutput) Stop(clip audio.Handle)
//
//	var _ audio.Output = (*SpeakerOutput)(nil)
//
// Start errors are logged by the session and never halt the caption timeline.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
