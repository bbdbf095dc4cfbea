// Package ui provides terminal styling shared by patchctl's commands.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Completed work, healthy checks
//	ColorError     (red)    - Failures
//	ColorWarning   (yellow) - Degraded queries, pending work
//	ColorInfo      (cyan)   - Informational values
//	ColorMuted     (gray)   - Secondary text, timing info
//	ColorSecondary (blue)   - In-progress indicators
//
// ConfigureColor switches lipgloss to monochrome for --no-color, NO_COLOR,
// or when stdout is not a terminal.
//
// # Tables
//
// RenderSimpleTable draws a styled table for terminal output and
// RenderPlainTable draws the same layout without escape codes, for files.
package ui
