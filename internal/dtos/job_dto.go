package dtos

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// ParsedJob is what the LLM extracts from a job posting.
type ParsedJob struct {
	CompanyName     string   `json:"company_name"`
	Title           string   `json:"role_title"`
	Location        string   `json:"location"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
	SalaryRange     string   `json:"salary_range"`
	JobLink         string   `json:"job_link,omitempty"`
}

type JobCreationRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Title       string `json:"role_title" binding:"required"`
	Description string `json:"description" binding:"required"`

	// Optional Fields
	JobLink         string   `json:"job_link"`
	Location        string   `json:"location"`
	SalaryRange     string   `json:"salary_range"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
	Status          string   `json:"status"` // Defaults to "APPLIED" if empty
}

type JobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
