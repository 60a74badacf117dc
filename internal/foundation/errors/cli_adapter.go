package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Process exit codes by category.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   4,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryManifest:   8,
	CategoryIndex:      9,
	CategoryInternal:   10,
	CategoryBuild:      11,
	CategoryFileSystem: 11,
	CategoryContent:    11,
}

// Hints printed under the error line for categories a user can usually fix.
var hints = map[ErrorCategory]string{
	CategoryConfig:     "check the config file or run 'iiifworks init' to create one",
	CategoryValidation: "see 'iiifworks --help' for usage",
	CategoryIndex:      "regenerate the manifest and facet index before building",
	CategoryNetwork:    "the manifest host may be down or rate limiting; try a lower fetch.rate_per_second",
}

// CLIErrorAdapter turns errors into a stderr message, a log record and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// ExitCodeFor returns 0 for nil, 1 for unclassified errors and a
// category-specific code otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[GetCategory(err)]; ok && IsClassified(err) {
		return code
	}
	return 1
}

// FormatError renders err for the terminal. Internal errors are only
// detailed in verbose mode.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if classified.Category() == CategoryInternal && !a.verbose {
		return "Internal error occurred (use -v for details)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s", classified.Error())
	if hint, ok := hints[classified.Category()]; ok {
		fmt.Fprintf(&b, "\nHint: %s", hint)
	}
	return b.String()
}

// Report logs err and prints its user-facing message. It returns the exit
// code the process should terminate with.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	if a.verbose || DispositionOf(err) == DispositionAbort {
		a.log(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err and exits the program with the matching code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(err))
}

func (a *CLIErrorAdapter) log(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{
		slog.String("category", string(classified.Category())),
		slog.String("disposition", string(classified.Disposition())),
	}
	for k, v := range classified.Context() {
		attrs = append(attrs, slog.Any(k, v))
	}
	if cause := classified.Cause(); cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	level := slog.LevelError
	switch classified.Severity() {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityInfo:
		level = slog.LevelInfo
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
