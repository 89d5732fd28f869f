// Package report renders per-entry outcome lines and the final
// summary. Message wording is part of dotty's CLI contract and is
// relied on by the integration tests.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/Dima-369/dotty/pkg/types"
	"github.com/Dima-369/dotty/pkg/ui/styles"
)

// Reporter writes human-readable outcome lines for a run.
type Reporter struct {
	out    io.Writer
	color  bool
	dryRun bool
}

// New creates a Reporter. Color is enabled only when requested, the
// writer is a terminal, and the terminal advertises color support.
func New(out io.Writer, noColor, dryRun bool) *Reporter {
	return &Reporter{
		out:    out,
		color:  !noColor && colorCapable(out),
		dryRun: dryRun,
	}
}

// colorCapable reports whether out is a color-capable terminal.
func colorCapable(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

// render applies the named style when color is on.
func (r *Reporter) render(style, text string) string {
	if !r.color {
		return text
	}
	return styles.Get(style).Render(text)
}

// Symlink reports a symlink that was, or would be, created.
func (r *Reporter) Symlink(destPath, sourcePath string) {
	if r.dryRun {
		fmt.Fprintln(r.out, r.render("Plan", fmt.Sprintf("Would symlink %s -> %s", destPath, sourcePath)))
		return
	}
	fmt.Fprintln(r.out, r.render("Done", fmt.Sprintf("Symlinked %s -> %s", destPath, sourcePath)))
}

// Transform reports a transformed file that was, or would be, written.
func (r *Reporter) Transform(destPath string) {
	if r.dryRun {
		fmt.Fprintln(r.out, r.render("Plan", fmt.Sprintf("Would write transformed file %s", destPath)))
		return
	}
	fmt.Fprintln(r.out, r.render("Done", fmt.Sprintf("Wrote transformed file %s", destPath)))
}

// AlreadyInPlace reports a destination that already satisfies the
// decision, so no mutation is needed.
func (r *Reporter) AlreadyInPlace(destPath string) {
	if r.dryRun {
		fmt.Fprintln(r.out, r.render("Plan", fmt.Sprintf("Would link (already in place) %s", destPath)))
		return
	}
	fmt.Fprintln(r.out, r.render("Done", fmt.Sprintf("Already in place %s", destPath)))
}

// Conflict reports a destination occupied by something incompatible.
func (r *Reporter) Conflict(destPath string) {
	fmt.Fprintln(r.out, r.render("Conflict", fmt.Sprintf("Conflict: target exists %s", destPath)))
}

// Identical reports a destination whose content matches the source but
// which was not (or could not be) overridden.
func (r *Reporter) Identical(destPath string) {
	fmt.Fprintln(r.out, r.render("Conflict", fmt.Sprintf("Conflict: target exists and is identical %s", destPath)))
}

// Override reports an identical destination that was replaced.
func (r *Reporter) Override(destPath, sourcePath string) {
	fmt.Fprintln(r.out, r.render("Override", fmt.Sprintf("Replaced identical file %s -> %s", destPath, sourcePath)))
}

// Skip reports an entry excluded by its descriptor.
func (r *Reporter) Skip(sourcePath string) {
	fmt.Fprintln(r.out, r.render("Skip", fmt.Sprintf("Skipped by lua %s", sourcePath)))
}

// Summary prints the aggregate counters, pluralization-aware.
func (r *Reporter) Summary(c types.Counters) {
	line := fmt.Sprintf("Summary: %d planned, %s, %d skipped, %s",
		c.Planned,
		pluralize(c.Conflicts, "conflict", "conflicts"),
		c.Skips,
		pluralize(c.Overrides, "override", "overrides"))
	fmt.Fprintln(r.out, r.render("Summary", line))
}

// pluralize formats a count with the grammatically matching noun.
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
