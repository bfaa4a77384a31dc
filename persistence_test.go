package hivsim

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadSnapshotRoundTrip(t *testing.T) {
	params := minimalSimParams()
	model, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error building model: %v", err)
	}
	model.currentTime = 5

	before := model.Population.AllAgents.Count()
	relsBefore := len(model.Population.Relationships)

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error saving snapshot: %v", err)
	}

	restored, err := LoadSnapshot(path, params)
	if err != nil {
		t.Fatalf("unexpected error loading snapshot: %v", err)
	}

	if restored.currentTime != 5 {
		t.Errorf("expected restored currentTime=5, got %d", restored.currentTime)
	}
	if restored.Population.AllAgents.Count() != before {
		t.Errorf("expected %d agents restored, got %d", before, restored.Population.AllAgents.Count())
	}
	if len(restored.Population.Relationships) != relsBefore {
		t.Errorf("expected %d relationships restored, got %d", relsBefore, len(restored.Population.Relationships))
	}
}

func TestSaveLoadSnapshotPreservesClinicalFlags(t *testing.T) {
	params := minimalSimParams()
	model, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agent := model.Population.AllAgents.Members()[0]
	agent.HIV = true
	agent.HIVTime = 12
	agent.HAARTAdherence = 3
	model.Population.HIVAgents.Add(agent)

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}

	restored, err := LoadSnapshot(path, params)
	if err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}

	got, ok := restored.Population.AllAgents.Get(agent.ID)
	if !ok {
		t.Fatalf("expected restored population to contain agent %d", agent.ID)
	}
	if !got.HIV || got.HIVTime != 12 || got.HAARTAdherence != 3 {
		t.Errorf("expected clinical state preserved, got HIV=%v HIVTime=%d HAARTAdherence=%d",
			got.HIV, got.HIVTime, got.HAARTAdherence)
	}
	if !restored.Population.HIVAgents.Contains(got) {
		t.Errorf("expected restored agent re-registered in HIVAgents")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	params := minimalSimParams()
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"), params); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a nonexistent snapshot file")
	}
}
