// Package eval scores placements and the boards they produce. All
// coefficients live in a read-only Weights record; nothing in here keeps
// global state.
package eval

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/icefall/tetris"
)

// Weights holds every evaluator coefficient. Positive values reward the
// property; the board-shape weights are typically negative.
type Weights struct {
	// Accumulated board heuristics.
	BackToBack      int32                `toml:"back_to_back"`
	Bumpiness       int32                `toml:"bumpiness"`
	BumpinessSq     int32                `toml:"bumpiness_sq"`
	RowTransitions  int32                `toml:"row_transitions"`
	Height          int32                `toml:"height"`
	TopHalf         int32                `toml:"top_half"`
	TopQuarter      int32                `toml:"top_quarter"`
	Jeopardy        int32                `toml:"jeopardy"`
	CavityCells     int32                `toml:"cavity_cells"`
	CavityCellsSq   int32                `toml:"cavity_cells_sq"`
	OverhangCells   int32                `toml:"overhang_cells"`
	OverhangCellsSq int32                `toml:"overhang_cells_sq"`
	CoveredCells    int32                `toml:"covered_cells"`
	CoveredCellsSq  int32                `toml:"covered_cells_sq"`
	TSlot           [4]int32             `toml:"tslot"`
	WellDepth       int32                `toml:"well_depth"`
	MaxWellDepth    int32                `toml:"max_well_depth"`
	WellColumn      [tetris.Width]int32  `toml:"well_column"`

	// Transient placement rewards.
	B2BClear     int32 `toml:"b2b_clear"`
	Clear1       int32 `toml:"clear1"`
	Clear2       int32 `toml:"clear2"`
	Clear3       int32 `toml:"clear3"`
	Clear4       int32 `toml:"clear4"`
	Tspin1       int32 `toml:"tspin1"`
	Tspin2       int32 `toml:"tspin2"`
	Tspin3       int32 `toml:"tspin3"`
	MiniTspin1   int32 `toml:"mini_tspin1"`
	MiniTspin2   int32 `toml:"mini_tspin2"`
	PerfectClear int32 `toml:"perfect_clear"`
	ComboGarbage int32 `toml:"combo_garbage"`
	MoveTime     int32 `toml:"move_time"`
	WastedT      int32 `toml:"wasted_t"`

	UseBag        bool `toml:"use_bag"`
	TimedJeopardy bool `toml:"timed_jeopardy"`
	StackPCDamage bool `toml:"stack_pc_damage"`
}

// DefaultWeights returns the standard preset.
func DefaultWeights() Weights {
	return Weights{
		BackToBack:      52,
		Bumpiness:       -24,
		BumpinessSq:     -7,
		RowTransitions:  -5,
		Height:          -39,
		TopHalf:         -150,
		TopQuarter:      -511,
		Jeopardy:        -11,
		CavityCells:     -173,
		CavityCellsSq:   -3,
		OverhangCells:   -34,
		OverhangCellsSq: -1,
		CoveredCells:    -17,
		CoveredCellsSq:  -1,
		TSlot:           [4]int32{8, 148, 192, 407},
		WellDepth:       57,
		MaxWellDepth:    17,
		WellColumn:      [tetris.Width]int32{20, 23, 20, 50, 59, 21, 59, 10, -10, 24},

		B2BClear:     104,
		Clear1:       -143,
		Clear2:       -100,
		Clear3:       -58,
		Clear4:       390,
		Tspin1:       121,
		Tspin2:       410,
		Tspin3:       602,
		MiniTspin1:   -158,
		MiniTspin2:   -93,
		PerfectClear: 999,
		ComboGarbage: 150,
		MoveTime:     -3,
		WastedT:      -152,

		UseBag:        true,
		TimedJeopardy: true,
	}
}

// FastWeights returns the preset tuned for low thinking budgets: moves
// are cheap to produce and the stack stays flat instead of hunting for
// spins.
func FastWeights() Weights {
	w := DefaultWeights()
	w.MoveTime = -12
	w.TSlot = [4]int32{0, 40, 60, 130}
	w.Tspin1 = 60
	w.Tspin2 = 210
	w.Tspin3 = 320
	w.WellDepth = 40
	w.TimedJeopardy = false
	return w
}

// LoadWeights reads a TOML weights file. Fields absent from the file
// keep the default preset's values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	f, err := os.Open(path)
	if err != nil {
		return w, errors.Wrap(err, "open weights")
	}
	defer f.Close()
	if _, err := toml.NewDecoder(f).Decode(&w); err != nil {
		return w, errors.Wrapf(err, "decode weights %s", path)
	}
	return w, nil
}

// WriteWeights writes the record as TOML.
func WriteWeights(out io.Writer, w Weights) error {
	return errors.Wrap(toml.NewEncoder(out).Encode(w), "encode weights")
}
