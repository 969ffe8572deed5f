// Package message defines the diagnostic message model shared by every
// broadcaster, listener and sink in relay.
//
// # Data model
//
// Message is the central record. It carries:
//
//   - Kind – closed tag (see kind.go) from which every classification is derived.
//   - Severity – continuous 0..1 scale (None, Low, Medium, High, Critical).
//   - Importance – relative rank of the kind among all registered kinds.
//   - Status / OperationStatus – step outcome vs. operation lifecycle; exactly
//     one of them is meaningful for a given kind, the other is NotApplicable.
//   - Text and Arguments – unformatted fmt-style text with positional values.
//   - Cause, creation time, origin and (for failures) a stack trace.
//
// # Formatting
//
// Formatted renders text and arguments once and caches the result. When an
// argument's String method formats the same message again on the same
// goroutine, the inner call returns ReentrantFormatting instead of recursing.
//
// # Kinds
//
// Built-in kinds are registered at package initialisation with importance
// spread evenly across [0,1]:
//
//	Trace < Step < Information < Narration < Announcement < OperationStarted <
//	OperationSucceeded < OperationHalted < Glitch < Warning < Quibble <
//	Incomplete < OperationFailed < Problem < Alert < FatalProblem < CriticalAlert
//
// RegisterKind adds a custom kind whose importance is the midpoint of two
// existing kinds, so comparisons stay totally ordered as kinds are added.
//
// # Status ordering
//
// Status constants are declared from best to worst. IsWorseThan and friends
// compare ordinals, so the declaration order is the severity order.
package message
