package importer

// Phase is the importer's position in the pipeline. Validating, Clearing
// and Inserting repeat once per table.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReading
	PhaseSplitting
	PhaseParsingStatements
	PhaseGrouping
	PhaseValidating
	PhaseClearing
	PhaseInserting
	PhaseReporting
	PhaseDone
)

var phaseNames = [...]string{
	PhaseIdle:              "idle",
	PhaseReading:           "reading",
	PhaseSplitting:         "splitting",
	PhaseParsingStatements: "parsing statements",
	PhaseGrouping:          "grouping",
	PhaseValidating:        "validating",
	PhaseClearing:          "clearing",
	PhaseInserting:         "inserting",
	PhaseReporting:         "reporting",
	PhaseDone:              "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// PerTable reports whether p is one of the per-table phases.
func (p Phase) PerTable() bool {
	return p == PhaseValidating || p == PhaseClearing || p == PhaseInserting
}
