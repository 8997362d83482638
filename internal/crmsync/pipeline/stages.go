// Package pipeline holds the configured mapping from admission milestones to
// CRM pipeline and status ids.
package pipeline

import (
	"fmt"

	"qabul_backend/platform/config"
)

// Stage identifies an admission milestone in the CRM pipeline.
type Stage string

const (
	StageFirstContact      Stage = config.StageFirstContact
	StageAccepted          Stage = config.StageAccepted
	StageRejected          Stage = config.StageRejected
	StageContractRequested Stage = config.StageContractRequested
)

var required = []Stage{StageFirstContact, StageAccepted, StageRejected, StageContractRequested}

// Target is the CRM destination for a stage.
type Target struct {
	PipelineID int64
	StatusID   int64
}

// Table resolves stages to their CRM targets. It is immutable after New.
type Table struct {
	targets map[Stage]Target
}

// New validates the configured stage ids. Every stage must map to a nonzero
// pipeline and status id; a hole here means a misconfigured deployment, so it
// fails construction rather than surfacing mid-sync.
func New(cfg config.CRMConfig) (*Table, error) {
	ids := cfg.GetCRMStageIDs()
	targets := make(map[Stage]Target, len(required))
	for _, stage := range required {
		pair, ok := ids[string(stage)]
		if !ok || pair[0] == 0 || pair[1] == 0 {
			return nil, fmt.Errorf("pipeline stage %q: missing pipeline or status id", stage)
		}
		targets[stage] = Target{PipelineID: pair[0], StatusID: pair[1]}
	}
	return &Table{targets: targets}, nil
}

// Lookup returns the CRM target for a stage. The second return is false only
// for stages outside the configured set; all required stages are guaranteed
// present after New.
func (t *Table) Lookup(stage Stage) (Target, bool) {
	target, ok := t.targets[stage]
	return target, ok
}
