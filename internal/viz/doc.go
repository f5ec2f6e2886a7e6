// Package viz renders scenario results for the terminal.
//
// A [ScenarioView] is built either from a fresh [scenario.Report] or from a
// run loaded back from storage, so the same rendering serves `run` and
// `show`:
//
//   - [Renderer] draws lipgloss panels, a compact table and the insights
//     block that compares scenarios
//   - [CoherenceChart], [DwellingChart] and [PowerChart] draw asciigraph
//     line charts over the time grid
//   - [Sparkline] and [Styles.ProgressBar] are the inline helpers used by
//     the panels and the interactive viewer
//
// Themes are selected by name with [GetTheme].
package viz
