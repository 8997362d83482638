package pipeline

import (
	"testing"
	"time"

	"qabul_backend/platform/config"
)

type stubConfig struct {
	ids map[string][2]int64
}

func (s *stubConfig) GetCRMBaseURL() string               { return "https://crm.example.com/api/v4" }
func (s *stubConfig) GetCRMToken() string                 { return "token" }
func (s *stubConfig) GetCRMTimeout() time.Duration        { return time.Second }
func (s *stubConfig) GetCRMSchemaTTL() time.Duration      { return 0 }
func (s *stubConfig) GetCRMTimeOffset() string            { return "+05:00" }
func (s *stubConfig) GetCRMStageIDs() map[string][2]int64 { return s.ids }
func (s *stubConfig) IsCRMEnabled() bool                  { return true }

func allStages() map[string][2]int64 {
	return map[string][2]int64{
		config.StageFirstContact:      {10, 100},
		config.StageAccepted:          {20, 200},
		config.StageRejected:          {20, 201},
		config.StageContractRequested: {30, 300},
	}
}

func TestNew_AllStagesConfigured(t *testing.T) {
	table, err := New(&stubConfig{ids: allStages()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	target, ok := table.Lookup(StageAccepted)
	if !ok {
		t.Fatal("expected accepted stage")
	}
	if target.PipelineID != 20 || target.StatusID != 200 {
		t.Errorf("accepted target = %+v", target)
	}
}

func TestNew_MissingStageFails(t *testing.T) {
	ids := allStages()
	delete(ids, config.StageRejected)

	if _, err := New(&stubConfig{ids: ids}); err == nil {
		t.Fatal("expected error for missing stage")
	}
}

func TestNew_ZeroStatusIDFails(t *testing.T) {
	ids := allStages()
	ids[config.StageContractRequested] = [2]int64{30, 0}

	if _, err := New(&stubConfig{ids: ids}); err == nil {
		t.Fatal("expected error for zero status id")
	}
}

func TestLookup_UnknownStage(t *testing.T) {
	table, err := New(&stubConfig{ids: allStages()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := table.Lookup(Stage("enrolled")); ok {
		t.Error("unknown stage must not resolve")
	}
}
