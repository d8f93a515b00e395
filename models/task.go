package models

// Task mirrors the mock task API resource. Priority and IsComplete travel as strings.
type Task struct {
	ID          string `json:"id"`
	TaskTitle   string `json:"taskTitle"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	IsComplete  string `json:"isComplete"`
	DueDate     string `json:"dueDate"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

type NewTask struct {
	TaskTitle   string `json:"taskTitle"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	IsComplete  string `json:"isComplete"`
	DueDate     string `json:"dueDate"`
}

func (t Task) Completed() bool { return t.IsComplete == "true" }
