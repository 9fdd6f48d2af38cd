package flow

import "path/filepath"

// Default on-disk conventions of the synthesis engine.
const (
	DefaultStage      = "01-yosys-synthesis"
	DefaultStateFile  = "state_out.json"
	DefaultMarkerFile = ".synthsweep.json"
	runsDirName       = "runs"
	workDirName       = ".synthsweep"
)

// Layout maps run IDs to paths. The engine owns everything under RunDir; the
// sweep owns WorkDir and the marker file.
type Layout struct {
	// DesignDir is the engine's design directory. Runs live in DesignDir/runs.
	DesignDir string

	// Stage is the name of the stage subdirectory holding the artifacts.
	Stage string

	// StateFile is written by the engine when the stage completes.
	StateFile string

	// MarkerFile is written by the invoker into the run directory.
	MarkerFile string
}

// NewLayout returns a layout with default stage and marker names.
func NewLayout(designDir string) Layout {
	return Layout{
		DesignDir:  designDir,
		Stage:      DefaultStage,
		StateFile:  DefaultStateFile,
		MarkerFile: DefaultMarkerFile,
	}
}

func (l Layout) withDefaults() Layout {
	if l.Stage == "" {
		l.Stage = DefaultStage
	}
	if l.StateFile == "" {
		l.StateFile = DefaultStateFile
	}
	if l.MarkerFile == "" {
		l.MarkerFile = DefaultMarkerFile
	}
	return l
}

// RunsDir is the parent of all run directories.
func (l Layout) RunsDir() string { return filepath.Join(l.DesignDir, runsDirName) }

// RunDir is the engine's working tree for runID.
func (l Layout) RunDir(runID string) string { return filepath.Join(l.RunsDir(), runID) }

// StageDir is the stage output directory inside the run.
func (l Layout) StageDir(runID string) string {
	return filepath.Join(l.RunDir(runID), l.withDefaults().Stage)
}

// StatePath is the stage-completion marker written by the engine.
func (l Layout) StatePath(runID string) string {
	return filepath.Join(l.StageDir(runID), l.withDefaults().StateFile)
}

// MarkerPath is the sweep's own record of the run's outcome.
func (l Layout) MarkerPath(runID string) string {
	return filepath.Join(l.RunDir(runID), l.withDefaults().MarkerFile)
}

// WorkDir holds generated configs and engine logs, outside the engine's tree.
func (l Layout) WorkDir() string { return filepath.Join(l.DesignDir, workDirName) }

// ConfigPath is where the engine configuration for runID is written.
func (l Layout) ConfigPath(runID string) string {
	return filepath.Join(l.WorkDir(), "configs", runID+".json")
}

// LogPath is where the engine's combined output for runID is written.
func (l Layout) LogPath(runID string) string {
	return filepath.Join(l.WorkDir(), "logs", runID+".log")
}
