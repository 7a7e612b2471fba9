package pipeline

import "context"

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx context.Context, pc *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(ctx context.Context, initial *PipelineContext) *PipelineContext {
	pc := initial
	for _, processor := range p.processors {
		pc = processor.Process(ctx, pc)
		// Continue on errors so every stage reports; stages skip themselves
		// when their input is missing.
	}
	return pc
}
