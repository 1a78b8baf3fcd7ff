package model

// IssueFilter narrows ListIssues results. Zero values mean "no constraint".
type IssueFilter struct {
	ProjectID string
	State     []IssueState
	Priority  []Priority
	ParentID  string
	Search    string
	Sort      string
	Limit     int
	Offset    int
}
