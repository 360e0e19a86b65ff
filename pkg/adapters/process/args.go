package process

import (
	"strconv"

	"github.com/aretw0/treetagger/pkg/model"
)

// Flags selects the engine output mode.
type Flags struct {
	Probabilities bool
	Threshold     float64
	Extra         []string
}

// ArgsFunc builds the engine command line for a model.
type ArgsFunc func(d model.Descriptor, f Flags) []string

// TreeTaggerArgs is the default ArgsFunc. The model path is always last.
// -sgml makes the engine echo the batch sentinel unchanged.
func TreeTaggerArgs(d model.Descriptor, f Flags) []string {
	args := []string{"-quiet", "-token", "-lemma", "-sgml"}
	if f.Probabilities {
		args = append(args, "-prob")
		if f.Threshold > 0 {
			args = append(args, "-threshold", strconv.FormatFloat(f.Threshold, 'f', -1, 64))
		}
	}
	args = append(args, f.Extra...)
	return append(args, d.Path)
}
