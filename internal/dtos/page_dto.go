package dtos

type SignalPageRequest struct {
	ResumeID string `json:"resume_id" binding:"required"`
	JobID    string `json:"job_id" binding:"required"`
}

// SignalPageUpdate carries optional edits; nil fields are left alone.
type SignalPageUpdate struct {
	Headline   *string `json:"headline"`
	Commentary *string `json:"commentary"`
	Published  *bool   `json:"published"`
}

// Commentary is the LLM-written part of a signal page.
type Commentary struct {
	Headline   string `json:"headline"`
	Commentary string `json:"commentary"`
}

// PublicPage is the unauthenticated view of a published page.
type PublicPage struct {
	Slug           string   `json:"slug"`
	Headline       string   `json:"headline"`
	CommentaryHTML string   `json:"commentary_html"`
	CandidateName  string   `json:"candidate_name"`
	CandidateTitle string   `json:"candidate_title"`
	AvatarURL      string   `json:"avatar_url,omitempty"`
	CompanyName    string   `json:"company_name"`
	RoleTitle      string   `json:"role_title"`
	MatchScore     *float64 `json:"match_score,omitempty"`
	MatchingSkills []string `json:"matching_skills"`
	ResumeSummary  string   `json:"resume_summary"`
	Theme          string   `json:"theme"`
}
