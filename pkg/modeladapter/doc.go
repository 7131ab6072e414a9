// Package modeladapter defines the interface and types for chat-completion adapters.
//
// It contains:
//   - [Completer] interface and embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - [Request] and [Response], the provider-neutral request/response shapes
//   - [github.com/germanamz/chatrelay/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code; concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
