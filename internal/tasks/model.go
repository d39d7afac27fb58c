package tasks

import "time"

type Task struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTask is a row to be inserted; the store assigns ID and CreatedAt.
type NewTask struct {
	Text      string
	Completed bool
}

// SampleTasks is the fixed set written by Reset.
var SampleTasks = []NewTask{
	{Text: "Deploy TaskFlow to Vercel", Completed: true},
	{Text: "Add dark mode toggle", Completed: true},
	{Text: "Connect to Postgres", Completed: true},
	{Text: "Celebrate with coffee", Completed: false},
	{Text: "Build 10 more apps", Completed: false},
}
