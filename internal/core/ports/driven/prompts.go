package driven

// PromptStore provides access to classifier prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptProposeTemplate asks the classifier to propose categories and criteria.
	// The template expects %s (instructions) and %s (document outline and text) placeholders.
	PromptProposeTemplate = "propose_template"

	// PromptJudgeCategory asks the classifier to judge one category's criteria.
	// This prompt is the system message and has no format placeholders.
	PromptJudgeCategory = "judge_category"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
