package pipeline

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/funvibe/funflow/internal/compiler"
	"github.com/funvibe/funflow/internal/config"
	"github.com/funvibe/funflow/internal/library"
	"github.com/funvibe/funflow/internal/workspace"
)

// PipelineContext carries the state shared by the stages.
type PipelineContext struct {
	FilePath string
	Source   []byte
	Settings *config.Settings
	Logger   *slog.Logger

	Registry  *library.Registry
	Workspace *workspace.Workspace
	Result    *compiler.Result
	// Changed lists the nodes whose lowered code differs from the cache.
	Changed []uuid.UUID

	Errors []error
}

func NewPipelineContext(filePath string, source []byte, settings *config.Settings) *PipelineContext {
	if settings == nil {
		settings = config.Default()
	}
	return &PipelineContext{
		FilePath: filePath,
		Source:   source,
		Settings: settings,
		Logger:   slog.Default(),
	}
}

// Failed reports whether any stage recorded an error.
func (pc *PipelineContext) Failed() bool {
	return len(pc.Errors) > 0
}

func (pc *PipelineContext) addError(err error) {
	pc.Errors = append(pc.Errors, err)
}
