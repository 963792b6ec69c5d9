package icefall

import (
	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/icefall/movegen"
	"github.com/icefall/pcsolver"
	"github.com/icefall/tetris"
)

// Options configure a bot instance. They are read-only after launch.
type Options struct {
	// Mode selects the movement rules placements are found under.
	Mode movegen.Mode
	// SpawnRule selects where pieces enter the field.
	SpawnRule tetris.SpawnRule
	// PCPriority enables the exact perfect clear sub-search.
	PCPriority pcsolver.Priority
	// MinNodes is the thinking floor: a request is answered once this
	// many expansions exist below the root. When every worker is parked
	// and the tree stops growing below the floor, the move is published
	// from what the tree holds.
	MinNodes int
	// MaxNodes forces publication and caps tree growth below the root.
	MaxNodes int
	// Threads is the number of search workers.
	Threads int
	// UseHold lets the search consider the hold slot.
	UseHold bool
	// Speculate searches across the bag's possible next pieces when the
	// queue runs out.
	Speculate bool
}

// DefaultOptions returns the standard preset.
func DefaultOptions() Options {
	return Options{
		Mode:       movegen.ModeZeroG,
		SpawnRule:  tetris.SpawnRow19,
		PCPriority: pcsolver.Off,
		MinNodes:   128,
		MaxNodes:   1 << 16,
		Threads:    1,
		UseHold:    true,
		Speculate:  true,
	}
}

// Validate checks the options, reporting every problem at once.
func (o Options) Validate() error {
	var errs *multierror.Error
	if o.Mode > movegen.ModeHardDropOnly {
		errs = multierror.Append(errs, errors.Errorf("movement mode %d out of range", o.Mode))
	}
	if o.SpawnRule > tetris.SpawnRow21 {
		errs = multierror.Append(errs, errors.Errorf("spawn rule %d out of range", o.SpawnRule))
	}
	if o.PCPriority > pcsolver.Attack {
		errs = multierror.Append(errs, errors.Errorf("pc priority %d out of range", o.PCPriority))
	}
	if o.Threads < 1 {
		errs = multierror.Append(errs, errors.Errorf("threads %d, need at least 1", o.Threads))
	}
	if o.MaxNodes < 1 {
		errs = multierror.Append(errs, errors.Errorf("max nodes %d, need at least 1", o.MaxNodes))
	}
	if o.MinNodes > o.MaxNodes {
		errs = multierror.Append(errs, errors.Errorf("min nodes %d exceeds max nodes %d", o.MinNodes, o.MaxNodes))
	}
	return errs.ErrorOrNil()
}
