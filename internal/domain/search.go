package domain

// ResultType distinguishes the entity kind of a search hit.
type ResultType string

const (
	ResultProcess  ResultType = "process"
	ResultCategory ResultType = "category"
)

// Search scores. A process sums every matching field; a category match is flat.
const (
	ScoreProcessTitle       = 10
	ScoreProcessDescription = 5
	ScoreProcessTag         = 3
	ScoreProcessStep        = 2
	ScoreCategory           = 8
)

type SearchResult struct {
	Type        ResultType `json:"type"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Path        string     `json:"path"`
	Score       int        `json:"score"`
}

// DepartmentNode is a department with its sorted categories.
type DepartmentNode struct {
	Department
	Categories []CategoryNode `json:"categories"`
}

// CategoryNode is a category with its sorted processes.
type CategoryNode struct {
	Category
	Processes []Process `json:"processes"`
}
