package models

// CareerPath is the top-level catalog grouping (e.g. "Backend Development").
// The full learning-path hierarchy is embedded: a learning path never
// outlives its career path.
type CareerPath struct {
	ID            string             `yaml:"id" json:"id"`
	Title         string             `yaml:"title" json:"title"`
	Description   string             `yaml:"description" json:"description"`
	Category      string             `yaml:"category" json:"category"`
	Icon          string             `yaml:"icon" json:"icon,omitempty"`
	Overview      CareerPathOverview `yaml:"overview" json:"overview"`
	LearningPaths []*LearningPath    `yaml:"learning_paths" json:"learningPaths"`
}

// CareerPathOverview summarizes a career path for the landing view.
type CareerPathOverview struct {
	Description    string   `yaml:"description" json:"description"`
	JobProspects   []string `yaml:"job_prospects" json:"jobProspects,omitempty"`
	RequiredSkills []string `yaml:"required_skills" json:"requiredSkills,omitempty"`
	EstimatedTime  string   `yaml:"estimated_time" json:"estimatedTime,omitempty"`
}

// DifficultyLevel classifies learning paths and skills.
type DifficultyLevel string

const (
	LevelBeginner     DifficultyLevel = "beginner"
	LevelIntermediate DifficultyLevel = "intermediate"
	LevelAdvanced     DifficultyLevel = "advanced"
)

// Valid reports whether the difficulty is one of the known levels.
func (d DifficultyLevel) Valid() bool {
	return d == LevelBeginner || d == LevelIntermediate || d == LevelAdvanced
}

// LearningPath is an ordered curriculum under a career path.
// IDs are unique within the owning career path; prerequisites reference
// sibling learning paths under the same career path.
type LearningPath struct {
	ID             string          `yaml:"id" json:"id"`
	Title          string          `yaml:"title" json:"title"`
	Description    string          `yaml:"description" json:"description"`
	Category       string          `yaml:"category" json:"category,omitempty"`
	Level          DifficultyLevel `yaml:"level" json:"level"`
	Icon           string          `yaml:"icon" json:"icon,omitempty"`
	Order          int             `yaml:"order" json:"order"`
	EstimatedWeeks int             `yaml:"estimated_weeks" json:"estimatedWeeks,omitempty"`
	Objectives     []string        `yaml:"objectives" json:"objectives,omitempty"`
	Prerequisites  []string        `yaml:"prerequisites" json:"prerequisites,omitempty"`
	Milestones     []*Milestone    `yaml:"milestones" json:"milestones,omitempty"`
	Skills         []*Skill        `yaml:"skills" json:"skills"`
}

// Milestone marks a checkpoint within a learning path.
type Milestone struct {
	ID             string   `yaml:"id" json:"id"`
	Title          string   `yaml:"title" json:"title"`
	Description    string   `yaml:"description" json:"description,omitempty"`
	RequiredSkills []string `yaml:"required_skills" json:"requiredSkills,omitempty"`
	ProjectPrompt  string   `yaml:"project_prompt" json:"projectPrompt,omitempty"`
}

// Skill is a unit of competency under a learning path, optionally gated by
// prerequisite skills. Its available/locked status is always computed from a
// user's completed set at read time and is never stored.
type Skill struct {
	ID            string          `yaml:"id" json:"id"`
	Title         string          `yaml:"title" json:"title"`
	Description   string          `yaml:"description" json:"description,omitempty"`
	Level         DifficultyLevel `yaml:"level" json:"level,omitempty"`
	Icon          string          `yaml:"icon" json:"icon,omitempty"`
	Order         int             `yaml:"order" json:"order"`
	EstimatedDays int             `yaml:"estimated_days" json:"estimatedDays,omitempty"`
	KeyTakeaways  []string        `yaml:"key_takeaways" json:"keyTakeaways,omitempty"`
	Prerequisites []string        `yaml:"prerequisites" json:"prerequisites,omitempty"`
	Resources     []*Resource     `yaml:"resources" json:"resources"`
}

// SkillStatus is the derived availability of a skill for a given user.
type SkillStatus string

const (
	SkillAvailable SkillStatus = "available"
	SkillLocked    SkillStatus = "locked"
)

// ResourceType discriminates the resource variants.
type ResourceType string

const (
	ResourceDocumentation ResourceType = "documentation"
	ResourceVideo         ResourceType = "video"
	ResourceArticle       ResourceType = "article"
	ResourceCourse        ResourceType = "course"
	ResourcePractice      ResourceType = "practice"
)

// Valid reports whether the type is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceDocumentation, ResourceVideo, ResourceArticle, ResourceCourse, ResourcePractice:
		return true
	}
	return false
}

// ResourcePriority marks a resource as required or optional within its skill.
type ResourcePriority string

const (
	PriorityRequired ResourcePriority = "required"
	PriorityOptional ResourcePriority = "optional"
)

// Resource is a leaf learning item. Practice-type resources carry an
// embedded exercise; every other type carries a URL.
type Resource struct {
	ID            string           `yaml:"id" json:"id"`
	Title         string           `yaml:"title" json:"title"`
	Description   string           `yaml:"description" json:"description,omitempty"`
	Type          ResourceType     `yaml:"type" json:"type"`
	URL           string           `yaml:"url" json:"url,omitempty"`
	EstimatedTime string           `yaml:"estimated_time" json:"estimatedTime,omitempty"`
	Priority      ResourcePriority `yaml:"priority" json:"priority,omitempty"`
	Tags          []string         `yaml:"tags" json:"tags,omitempty"`
	Objectives    []string         `yaml:"objectives" json:"objectives,omitempty"`
	Practice      *PracticeSpec    `yaml:"practice" json:"practice,omitempty"`
}

// PracticeSpec holds the embedded exercise for practice-type resources.
// Services lists backing services (e.g. "postgres", "redis") provisioned for
// playground sessions opened against this resource.
type PracticeSpec struct {
	Language     string   `yaml:"language" json:"language"`
	Instructions string   `yaml:"instructions" json:"instructions,omitempty"`
	StarterCode  string   `yaml:"starter_code" json:"starterCode"`
	SolutionCode string   `yaml:"solution_code" json:"solutionCode,omitempty"`
	Services     []string `yaml:"services" json:"services,omitempty"`
}

// IsPractice reports whether the resource is a hands-on exercise.
func (r *Resource) IsPractice() bool {
	return r.Type == ResourcePractice
}
