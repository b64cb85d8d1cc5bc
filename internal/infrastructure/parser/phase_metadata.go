package parser

import (
	"encoding/json"
	"fmt"

	"github.com/atzentis/atzentis/internal/domain/model"
)

// phaseMetadataFile is the on-disk JSON shape of a phase's authoritative
// metadata file (spec.md §6 "Phase metadata schema").
type phaseMetadataFile struct {
	Phase       string                  `json:"phase"`
	PhaseNumber int                     `json:"phaseNumber"`
	PhaseName   string                  `json:"phaseName"`
	Status      string                  `json:"status"`
	Tasks       []phaseMetadataTaskFile `json:"tasks"`
	Stats       map[string]interface{}  `json:"stats"`
}

type phaseMetadataTaskFile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Estimate     float64  `json:"estimate"`
	Priority     string   `json:"priority"`
	Status       string   `json:"status"`
	Dependencies []string `json:"dependencies"`
	Subtasks     *struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
	} `json:"subtasks"`
}

// ParsePhaseMetadata decodes a phase metadata file's JSON bytes. A
// malformed file is reported as an error so the caller can degrade to
// "tasks load without overlay" per spec.md §4.1.
func ParsePhaseMetadata(data []byte) (*model.Phase, error) {
	var raw phaseMetadataFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse phase metadata: %w", err)
	}

	entries := make([]model.TaskMetadataEntry, 0, len(raw.Tasks))
	for _, tf := range raw.Tasks {
		id, err := model.ParseTaskID(tf.ID)
		if err != nil {
			// A malformed individual task entry is skipped, not fatal to
			// the whole metadata file — the per-task file will fall back
			// to a minimal record and simply lack overlay.
			continue
		}

		status, err := model.ParseMetadataStatus(tf.Status)
		if err != nil {
			status = model.StatusPending
		}

		deps := make([]model.TaskID, 0, len(tf.Dependencies))
		for _, d := range tf.Dependencies {
			depID, err := model.ParseTaskID(d)
			if err == nil {
				deps = append(deps, depID)
			}
		}

		entry := model.TaskMetadataEntry{
			ID:           id,
			Name:         tf.Name,
			Title:        tf.Title,
			Estimate:     model.NewEstimateHours(tf.Estimate),
			Priority:     model.Priority(tf.Priority),
			Status:       status,
			Dependencies: deps,
		}
		if tf.Subtasks != nil {
			entry.SubtasksTotal = tf.Subtasks.Total
			entry.SubtasksDone = tf.Subtasks.Completed
		}
		entries = append(entries, entry)
	}

	phaseNum, err := model.PhaseNumberFromOrdinal(raw.PhaseNumber)
	if err != nil {
		return nil, fmt.Errorf("parse phase metadata: %w", err)
	}
	phaseID, err := model.ParsePhaseID(fmt.Sprintf("p%s", phaseNum))
	if err != nil {
		return nil, fmt.Errorf("parse phase metadata: %w", err)
	}

	return &model.Phase{
		ID:     phaseID,
		Number: raw.PhaseNumber,
		Name:   raw.PhaseName,
		Status: model.PhaseStatus(raw.Status),
		Tasks:  entries,
		Stats:  raw.Stats,
	}, nil
}

// FindEntry looks up a task's metadata entry by id.
func FindEntry(phase *model.Phase, id model.TaskID) (model.TaskMetadataEntry, bool) {
	for _, e := range phase.Tasks {
		if e.ID.Equals(id) {
			return e, true
		}
	}
	return model.TaskMetadataEntry{}, false
}
