// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with lifecycle logging via ShellExecutor, exposes
// OSCommandRunner for default process execution, and defines the abstractions
// scmkit uses to run git, ninja, and gomacc in a testable manner. Git
// invocations receive a non-interactive environment (askpass and pager
// suppression) so no command can stall waiting on a terminal.
package execshell
