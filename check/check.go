package check

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jgwest/restic-runner/generate"
	"github.com/jgwest/restic-runner/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// RunCheck compares the units that would be generated for settings against those installed in unitDir,
// writing a diff to out for each mismatch.
func RunCheck(settings generate.UnitSettings, unitDir string, out io.Writer) error {

	units, err := generate.GenerateUnits(settings)
	if err != nil {
		return err
	}

	mismatched := []string{}

	for _, unit := range units {

		unitPath := filepath.Join(unitDir, unit.Name)

		// Read the installed unit
		content, err := os.ReadFile(unitPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintf(out, "ERROR: Missing unit: %s\n", unitPath)
				mismatched = append(mismatched, unitPath)
				continue
			}
			return err
		}

		// Diff the installed unit with the generated one and report differences
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(string(content), unit.Content, false)

		if containsNonEqual(diffs) {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "ERROR: Mismatch detected in %s:\n", unitPath)
			fmt.Fprintln(out, dmp.DiffPrettyText(diffs))
			mismatched = append(mismatched, unitPath)
		}
	}

	if len(mismatched) > 0 {
		return &model.UnitDriftError{Files: mismatched}
	}

	return nil
}

func containsNonEqual(diffs []diffmatchpatch.Diff) bool {
	for _, diff := range diffs {
		if diff.Type != diffmatchpatch.DiffEqual {
			return true
		}
	}
	return false
}
