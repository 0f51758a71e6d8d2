// Package report writes the human readable outcome of a smoke test.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/wI2L/jsondiff"
)

const (
	MismatchHeading = "Results did not match."
)

var (
	failColour = color.New(color.FgRed, color.Bold)
	passColour = color.New(color.FgGreen, color.Bold)
)

// Diff returns the JSON patch that turns expected into observed. An empty
// patch means the two serialise identically.
func Diff(expected, observed any) (jsondiff.Patch, error) {
	return jsondiff.Compare(expected, observed)
}

// Mismatch writes both values and the patch between them.
func Mismatch(w io.Writer, observed, expected any) error {
	if _, err := failColour.Fprintln(w, MismatchHeading); err != nil {
		return err
	}
	if err := section(w, "Results", observed); err != nil {
		return err
	}
	if err := section(w, "Expected", expected); err != nil {
		return err
	}

	patch, err := Diff(expected, observed)
	if err != nil {
		// the values are already on the page
		_, err = fmt.Fprintf(w, "Diff unavailable: %v\n", err)
		return err
	}
	return section(w, "Diff", patch)
}

// Passed writes a one line success marker for name.
func Passed(w io.Writer, name string) error {
	_, err := passColour.Fprintf(w, "%s: results matched\n", name)
	return err
}

func section(w io.Writer, heading string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		_, err = fmt.Fprintf(w, "%s\n%+v\n", heading, v)
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n", heading, b)
	return err
}
