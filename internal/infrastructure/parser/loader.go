// Package parser implements the Task Loader (spec.md §4.1): it walks
// phase directories on an afero.Fs, parses per-task descriptor files and
// the authoritative phase metadata file, and overlays the two into fully
// resolved model.Task records. Using afero.Fs rather than os directly
// keeps the resolution algorithm unit-testable against an in-memory
// filesystem, grounded on internal/infra/repository/sbi/file_sbi_repository.go.
package parser

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/atzentis/atzentis/internal/domain/model"
)

const (
	phaseMetadataFileName = "phase.json"
	taskDescriptorName    = "task.md"
)

// Loader resolves task records from an on-disk specs tree.
type Loader struct {
	fs        afero.Fs
	specsRoot string
	logger    *log.Logger
}

// NewLoader builds a Loader rooted at specsRoot on fs.
func NewLoader(fs afero.Fs, specsRoot string) *Loader {
	return &Loader{fs: fs, specsRoot: specsRoot, logger: log.New(log.Writer(), "[loader] ", log.LstdFlags)}
}

// LoadTasks resolves every task under the phase directory matching
// phase, ordered by ascending id. A missing phase directory yields an
// empty, non-error result (spec.md §4.1 "Failures").
func (l *Loader) LoadTasks(phase model.PhaseID) ([]model.Task, error) {
	phaseDir, meta, err := l.locatePhase(phase)
	if err != nil {
		return nil, err
	}
	if phaseDir == "" {
		return nil, nil
	}

	entries, err := afero.ReadDir(l.fs, phaseDir)
	if err != nil {
		return nil, fmt.Errorf("loader: read phase dir %s: %w", phaseDir, err)
	}

	var tasks []model.Task
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		taskID, _, ok := model.MatchTaskDir(entry.Name(), phase)
		if !ok {
			continue
		}
		task := l.loadOneTask(phaseDir, entry.Name(), taskID, phase, meta)
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID.String() < tasks[j].ID.String() })
	return tasks, nil
}

// LoadTask resolves a single task by id. Returns ok=false if not found.
func (l *Loader) LoadTask(taskID model.TaskID) (model.Task, bool, error) {
	phase, err := model.ParsePhaseID("p" + taskID.Phase())
	if err != nil {
		return model.Task{}, false, fmt.Errorf("loader: %w", err)
	}

	phaseDir, meta, err := l.locatePhase(phase)
	if err != nil {
		return model.Task{}, false, err
	}
	if phaseDir == "" {
		return model.Task{}, false, nil
	}

	entries, err := afero.ReadDir(l.fs, phaseDir)
	if err != nil {
		return model.Task{}, false, fmt.Errorf("loader: read phase dir %s: %w", phaseDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, _, ok := model.MatchTaskDir(entry.Name(), phase)
		if !ok || !id.Equals(taskID) {
			continue
		}
		return l.loadOneTask(phaseDir, entry.Name(), id, phase, meta), true, nil
	}
	return model.Task{}, false, nil
}

// locatePhase finds the P<PP>-<slug> directory for phase and parses its
// metadata file if present. A malformed metadata file is logged and
// ignored (tasks load without overlay); a missing phase directory
// returns ("", nil, nil).
func (l *Loader) locatePhase(phase model.PhaseID) (dir string, meta *model.Phase, err error) {
	entries, err := afero.ReadDir(l.fs, l.specsRoot)
	if err != nil {
		return "", nil, nil // specs root itself absent: treat as no tasks
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, ok := model.MatchPhaseDir(entry.Name(), phase); !ok {
			continue
		}
		phaseDir := filepath.Join(l.specsRoot, entry.Name())

		metaPath := filepath.Join(phaseDir, phaseMetadataFileName)
		data, readErr := afero.ReadFile(l.fs, metaPath)
		if readErr != nil {
			return phaseDir, nil, nil // no metadata file: load without overlay
		}

		parsed, parseErr := ParsePhaseMetadata(data)
		if parseErr != nil {
			l.logger.Printf("malformed phase metadata at %s: %v (loading without overlay)", metaPath, parseErr)
			return phaseDir, nil, nil
		}
		return phaseDir, parsed, nil
	}
	return "", nil, nil
}

// loadOneTask parses the task descriptor (or degrades to a minimal
// record) and overlays phase metadata, which is authoritative for
// dependencies, estimate, priority, and status (spec.md §3 invariant).
func (l *Loader) loadOneTask(phaseDir, dirName string, id model.TaskID, phase model.PhaseID, meta *model.Phase) model.Task {
	task := l.minimalTask(id, dirName, phase)

	descPath := filepath.Join(phaseDir, dirName, taskDescriptorName)
	if data, err := afero.ReadFile(l.fs, descPath); err == nil {
		parsed, ok, parseErr := ParseTaskDescriptor(data)
		if parseErr != nil {
			l.logger.Printf("malformed task descriptor at %s: %v (degrading to minimal record)", descPath, parseErr)
		} else if ok {
			l.applyDescriptor(&task, parsed)
		}
	}

	if meta != nil {
		if entry, found := FindEntry(meta, id); found {
			task.Dependencies = entry.Dependencies
			task.Estimate = entry.Estimate
			task.Priority = entry.Priority
			task.Status = entry.Status
			if entry.Name != "" {
				task.Name = entry.Name
			}
		}
	}

	return task
}

// minimalTask derives the fallback record from the directory name alone,
// used when no descriptor is present or it fails to parse.
func (l *Loader) minimalTask(id model.TaskID, dirName string, phase model.PhaseID) model.Task {
	_, slug, _ := model.MatchTaskDir(dirName, phase)
	name := strings.ReplaceAll(slug, "-", " ")
	return model.Task{
		ID:            id,
		Name:          name,
		Status:        model.StatusPending,
		ParallelGroup: 1,
		Phase:         phase,
		Priority:      model.PriorityP2,
	}
}

func (l *Loader) applyDescriptor(task *model.Task, desc ParsedTaskDescriptor) {
	if desc.Name != "" {
		task.Name = desc.Name
	}
	task.Description = desc.Description
	if desc.Status != "" {
		if status, err := model.ParseMetadataStatus(desc.Status); err == nil {
			task.Status = status
		}
	}
	if desc.ParallelGroup > 0 {
		task.ParallelGroup = desc.ParallelGroup
	}
	for _, d := range desc.Dependencies {
		if id, err := model.ParseTaskID(d); err == nil {
			task.Dependencies = append(task.Dependencies, id)
		}
	}
	task.Files = desc.Files
	task.AcceptanceCriteria = desc.AcceptanceCriteria
	if desc.Estimate != "" {
		if est, err := model.ParseEstimate(desc.Estimate); err == nil {
			task.Estimate = est
		}
	}
	if desc.Priority != "" {
		p := model.Priority(desc.Priority)
		if p.IsValid() {
			task.Priority = p
		}
	}
	task.Requirements = desc.Requirements
	task.BusinessRules = desc.BusinessRules
	task.TestingRequirements = desc.TestingRequirements
	task.Skills = desc.Skills
}
