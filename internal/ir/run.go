package ir

// Run is one recorded full-netlist check.
type Run struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Label         string `json:"label,omitempty"`
	SpecHash      string `json:"spec_hash"`
	PlacementHash string `json:"placement_hash"`
	Placements    int    `json:"placements"`
	Instances     int    `json:"instances"`
	Valid         bool   `json:"valid"`
	MatchPolicy   string `json:"match_policy"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// NewRun summarizes a report as a run record. Seq is assigned by the store.
func NewRun(id, label, matchPolicy string, r *Report) Run {
	return Run{
		ID:            id,
		Label:         label,
		SpecHash:      r.SpecHash,
		PlacementHash: r.PlacementHash,
		Placements:    r.Placements,
		Instances:     len(r.Instances),
		Valid:         r.Valid,
		MatchPolicy:   matchPolicy,
		EngineVersion: EngineVersion,
		IRVersion:     IRVersion,
	}
}

// InstanceState is the recorded resolution of one instance in a run.
type InstanceState struct {
	RunID    string            `json:"run_id"`
	Instance InstanceKey       `json:"instance"`
	Type     string            `json:"type"`
	States   map[string]string `json:"states"`
	Valid    bool              `json:"valid"`
}

// RunDiagnostic is a diagnostic recorded by a run.
type RunDiagnostic struct {
	RunID string `json:"run_id"`
	Diagnostic
}
