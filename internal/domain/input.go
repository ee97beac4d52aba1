package domain

// DepartmentInput carries the caller-supplied fields of a new department.
// A nil Order places the department after its existing siblings.
type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       *int   `json:"order,omitempty"`
	Manager     string `json:"manager,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

type CategoryInput struct {
	Name               string `json:"name"`
	DepartmentID       string `json:"departmentId"`
	Description        string `json:"description"`
	BusinessDefinition string `json:"businessDefinition,omitempty"`
	LegalBasis         string `json:"legalBasis,omitempty"`
	Order              *int   `json:"order,omitempty"`
}

type ProcessInput struct {
	Title       string   `json:"title"`
	CategoryID  string   `json:"categoryId"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Steps       []Step   `json:"steps,omitempty"`
	LegalBasis  []string `json:"legalBasis,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
	References  []string `json:"references,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Order       *int     `json:"order,omitempty"`
}

// Patch types use nil to mean "leave unchanged". For slice fields a nil
// slice is absent while a non-nil empty slice clears the field.

type DepartmentPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Order       *int    `json:"order,omitempty"`
	Manager     *string `json:"manager,omitempty"`
	Contact     *string `json:"contact,omitempty"`
}

type CategoryPatch struct {
	Name               *string `json:"name,omitempty"`
	DepartmentID       *string `json:"departmentId,omitempty"`
	Description        *string `json:"description,omitempty"`
	BusinessDefinition *string `json:"businessDefinition,omitempty"`
	LegalBasis         *string `json:"legalBasis,omitempty"`
	Order              *int    `json:"order,omitempty"`
}

type ProcessPatch struct {
	Title       *string  `json:"title,omitempty"`
	CategoryID  *string  `json:"categoryId,omitempty"`
	Description *string  `json:"description,omitempty"`
	Content     *string  `json:"content,omitempty"`
	Steps       []Step   `json:"steps,omitempty"`
	LegalBasis  []string `json:"legalBasis,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
	References  []string `json:"references,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Order       *int     `json:"order,omitempty"`
}

// DeleteResult reports how many entities a delete removed, cascade included.
type DeleteResult struct {
	Departments int `json:"departments"`
	Categories  int `json:"categories"`
	Processes   int `json:"processes"`
}
