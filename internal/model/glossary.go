package model

type Glossary struct {
	ID          ID             `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	WorkspaceID ID             `json:"workspace_id,omitempty"`
	SourceLang  string         `json:"source_language,omitempty"`
	TargetLang  string         `json:"target_language,omitempty"`
	IsActive    bool           `json:"is_active"`
	TermCount   int            `json:"term_count,omitempty"`
	Terms       []GlossaryTerm `json:"terms,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
}

type GlossaryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	WorkspaceID ID     `json:"workspace_id,omitempty"`
	SourceLang  string `json:"source_language,omitempty"`
	TargetLang  string `json:"target_language,omitempty"`
}

type GlossaryPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type GlossaryTerm struct {
	ID          ID     `json:"id,omitempty"`
	GlossaryID  ID     `json:"glossary_id,omitempty"`
	SourceTerm  string `json:"source_term"`
	TargetTerm  string `json:"target_term"`
	TargetLang  string `json:"target_lang,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTerm is the single-term payload of POST /glossaries/terms.
type NewTerm struct {
	GlossaryID  ID     `json:"glossary_id"`
	Source      string `json:"source"`
	Translation string `json:"translation"`
	TargetLang  string `json:"target_lang,omitempty"`
}

type TermPatch struct {
	SourceTerm *string `json:"source_term,omitempty"`
	TargetTerm *string `json:"target_term,omitempty"`
	TargetLang *string `json:"target_lang,omitempty"`
}
