package interaction

import (
	"fmt"

	"prowler/domain/core"
	"prowler/domain/profile"
)

// DMFFilter selects rows by the sign of the double-mutant effect.
type DMFFilter string

const (
	DMFAny      DMFFilter = ""
	DMFPositive DMFFilter = "positive"
	DMFNegative DMFFilter = "negative"
)

// ProcessFilter selects rows by bioprocess similarity.
type ProcessFilter string

const (
	ProcessAny       ProcessFilter = ""
	ProcessIdentical ProcessFilter = BioprocessIdentical
	ProcessDifferent ProcessFilter = BioprocessDifferent
)

// ProfileFilter selects rows by profile similarity.
type ProfileFilter string

const (
	ProfilesAny        ProfileFilter = ""
	ProfilesSimilar    ProfileFilter = "similar"
	ProfilesDissimilar ProfileFilter = "unsimilar"
)

// Selector narrows a table by boolean predicates. Zero-valued fields are
// omitted. Filters run in a fixed order and each one is recorded in the
// Selection, so two runs with the same Selector are comparable.
type Selector struct {
	DMF         DMFFilter     `json:"dmf,omitempty"`
	SMFBelowOne bool          `json:"smf_below_one"`
	GISMin      *float64      `json:"gis_min,omitempty"` // keeps GIS > GISMin
	GISMax      *float64      `json:"gis_max,omitempty"` // keeps GIS < GISMax
	NoFlatPlus  bool          `json:"no_flat_plus,omitempty"`
	NoFlatMinus bool          `json:"no_flat_minus,omitempty"`
	Process     ProcessFilter `json:"process,omitempty"`
	Profiles    ProfileFilter `json:"profiles,omitempty"`
	Threshold   *float64      `json:"threshold,omitempty"`
}

// DefaultSelector keeps only pairs whose single mutants are both sick.
func DefaultSelector() Selector {
	return Selector{SMFBelowOne: true}
}

// Selection is the outcome of Selector.Apply.
type Selection struct {
	Table Table `json:"-"`
	// Filters are human-readable labels, Names are short file-name friendly tags.
	Filters []string `json:"filters"`
	Names   []string `json:"names"`
}

// Validate checks that the options are consistent.
func (s Selector) Validate() error {
	switch s.DMF {
	case DMFAny, DMFPositive, DMFNegative:
	default:
		return core.NewValidationError("dmf", fmt.Sprintf("unknown filter %q", s.DMF))
	}
	switch s.Process {
	case ProcessAny, ProcessIdentical, ProcessDifferent:
	default:
		return core.NewValidationError("process", fmt.Sprintf("unknown filter %q", s.Process))
	}
	switch s.Profiles {
	case ProfilesAny, ProfilesSimilar, ProfilesDissimilar:
	default:
		return core.NewValidationError("profiles", fmt.Sprintf("unknown filter %q", s.Profiles))
	}
	if s.Profiles == ProfilesAny && s.Threshold != nil {
		return core.NewPreconditionError("threshold given without a profiles filter")
	}
	if s.Profiles != ProfilesAny {
		if s.Threshold == nil {
			return core.NewPreconditionError("profiles filter needs a threshold")
		}
		if err := profile.ValidateThreshold(*s.Threshold); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs the configured filters over t. t is left untouched.
func (s Selector) Apply(t Table) (Selection, error) {
	if err := s.Validate(); err != nil {
		return Selection{}, err
	}
	if s.Profiles != ProfilesAny && !t.Scored() {
		return Selection{}, core.NewValidationError("profiles", "table has not been scored")
	}

	sel := Selection{Table: t, Filters: []string{}, Names: []string{}}
	step := func(label, name string, keep func(Record) bool) {
		sel.Table = sel.Table.Filter(keep)
		sel.Filters = append(sel.Filters, label)
		sel.Names = append(sel.Names, name)
	}

	switch s.DMF {
	case DMFPositive:
		step("DMF positive", "DMF_p", Record.PositiveDMF)
	case DMFNegative:
		step("DMF negative", "DMF_n", Record.NegativeDMF)
	}
	if s.SMFBelowOne {
		step("SMF < 1.0", "SMF_blw_1", func(r Record) bool {
			return r.QuerySMF < 1.0 && r.ArraySMF < 1.0
		})
	}
	if s.GISMax != nil {
		hi := *s.GISMax
		step(fmt.Sprintf("Genetic interaction score < %v", hi), fmt.Sprintf("gis_%v", hi), func(r Record) bool {
			return r.GIS < hi
		})
	}
	if s.GISMin != nil {
		lo := *s.GISMin
		step(fmt.Sprintf("Genetic interaction score > %v", lo), fmt.Sprintf("gis_%v", lo), func(r Record) bool {
			return r.GIS > lo
		})
	}

	if s.NoFlatPlus {
		step("No plus-only (eg ++++++) profiles", "no_plus_flat", func(r Record) bool {
			return !r.QueryProfile.IsFlat(profile.Positive) && !r.ArrayProfile.IsFlat(profile.Positive)
		})
	}
	if s.NoFlatMinus {
		step("No minus-only (eg ------) profiles", "no_min_flat", func(r Record) bool {
			return !r.QueryProfile.IsFlat(profile.Negative) && !r.ArrayProfile.IsFlat(profile.Negative)
		})
	}

	switch s.Process {
	case ProcessIdentical:
		step("Identical bioprocesses", "iden_proc", func(r Record) bool { return r.Bioprocess == BioprocessIdentical })
	case ProcessDifferent:
		step("Different bioprocesses", "diff_proc", func(r Record) bool { return r.Bioprocess == BioprocessDifferent })
	}

	switch s.Profiles {
	case ProfilesSimilar:
		threshold := *s.Threshold
		step("Similar profiles", "sim_prof", func(r Record) bool { return r.PSS >= threshold })
	case ProfilesDissimilar:
		threshold := *s.Threshold
		step("Dissimilar profiles", "dis_prof", func(r Record) bool { return r.PSS < threshold })
	}

	return sel, nil
}
