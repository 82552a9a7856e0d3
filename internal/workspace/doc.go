// Package workspace manages scratch directories for publish checkouts,
// supporting both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g., blogpress-20260825-122336)
// suitable for one-shot publishes, cleaning up completely after use.
//
// Persistent mode uses a fixed directory path that persists across runs,
// letting the publisher reuse its hosting-branch clone instead of re-cloning
// on every publish.
package workspace
