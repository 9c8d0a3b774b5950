// Package visionchat provides a uniform driver contract over multiple
// text-chat and vision-capable AI providers.
//
// The package hides per-provider differences in message formatting, transport
// (SDK clients vs. raw HTTP with server-sent events), streaming chunk shapes,
// and error surfaces behind a single contract: a driver translates a generic
// ordered message list into its vendor's wire shape, streams the response,
// forwards every text fragment to an output sink as it arrives, and returns
// the full concatenated text once the stream terminates.
//
// # Core Concepts
//
// Driver: the contract every provider adapter implements.
//
//	type Driver interface {
//		Initialize(cfg DriverConfig) error
//		GenerateResponse(ctx context.Context, msgs []Message, sink io.Writer) (string, error)
//		DefaultMaxTokens() int
//	}
//
// VisionFormatter: the optional vision capability. Drivers that can embed an
// image in a request implement it; text-only drivers fail with
// UnsupportedCapabilityErr instead of silently degrading.
//
// Message: a single exchange in the conversation, with a Role (user,
// assistant, or system) and one or more content parts (text or base64 image).
// The full ordered message list is passed on every call; drivers keep no
// session state between calls.
//
// # Example
//
//	factory, err := visionchat.Resolve("claude")
//	if err != nil {
//		return err
//	}
//	driver := factory()
//	if err := driver.Initialize(visionchat.DriverConfig{APIKey: key}); err != nil {
//		return err
//	}
//
//	msgs := []visionchat.Message{
//		visionchat.Text(visionchat.RoleUser, "What is the capital of France?"),
//	}
//	reply, err := driver.GenerateResponse(ctx, msgs, os.Stdout)
package visionchat
