package events

const (
	EventTypeTaskCreated   = "task.created"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTodoConverted = "todo.converted"
	EventTypeSOPPublished  = "sop.published"
)

// TaskCreatedEvent is published after a task is committed. An empty
// AssignedTo means the whole group is notified.
type TaskCreatedEvent struct {
	BaseEvent
	TaskID     int64  `json:"task_id"`
	GroupID    int64  `json:"group_id"`
	Title      string `json:"title"`
	AssignedTo string `json:"assigned_to"`
	CreatedBy  string `json:"created_by"`
}

func NewTaskCreatedEvent(taskID, groupID int64, title, assignedTo, createdBy string) *TaskCreatedEvent {
	return &TaskCreatedEvent{
		BaseEvent: newBaseEvent(EventTypeTaskCreated, map[string]interface{}{
			"task_id":     taskID,
			"group_id":    groupID,
			"title":       title,
			"assigned_to": assignedTo,
			"created_by":  createdBy,
		}),
		TaskID:     taskID,
		GroupID:    groupID,
		Title:      title,
		AssignedTo: assignedTo,
		CreatedBy:  createdBy,
	}
}

type TaskCompletedEvent struct {
	BaseEvent
	TaskID      int64  `json:"task_id"`
	GroupID     int64  `json:"group_id"`
	Title       string `json:"title"`
	CompletedBy string `json:"completed_by"`
}

func NewTaskCompletedEvent(taskID, groupID int64, title, completedBy string) *TaskCompletedEvent {
	return &TaskCompletedEvent{
		BaseEvent: newBaseEvent(EventTypeTaskCompleted, map[string]interface{}{
			"task_id":      taskID,
			"group_id":     groupID,
			"title":        title,
			"completed_by": completedBy,
		}),
		TaskID:      taskID,
		GroupID:     groupID,
		Title:       title,
		CompletedBy: completedBy,
	}
}

type TodoConvertedEvent struct {
	BaseEvent
	TodoID     int64  `json:"todo_id"`
	ProjectID  int64  `json:"project_id"`
	GroupID    int64  `json:"group_id"`
	Title      string `json:"title"`
	AssignedTo string `json:"assigned_to"`
}

func NewTodoConvertedEvent(todoID, projectID, groupID int64, title, assignedTo string) *TodoConvertedEvent {
	return &TodoConvertedEvent{
		BaseEvent: newBaseEvent(EventTypeTodoConverted, map[string]interface{}{
			"todo_id":     todoID,
			"project_id":  projectID,
			"group_id":    groupID,
			"title":       title,
			"assigned_to": assignedTo,
		}),
		TodoID:     todoID,
		ProjectID:  projectID,
		GroupID:    groupID,
		Title:      title,
		AssignedTo: assignedTo,
	}
}

type SOPPublishedEvent struct {
	BaseEvent
	SOPID   int64  `json:"sop_id"`
	GroupID int64  `json:"group_id"`
	Title   string `json:"title"`
	Version string `json:"version"`
}

func NewSOPPublishedEvent(sopID, groupID int64, title, version string) *SOPPublishedEvent {
	return &SOPPublishedEvent{
		BaseEvent: newBaseEvent(EventTypeSOPPublished, map[string]interface{}{
			"sop_id":   sopID,
			"group_id": groupID,
			"title":    title,
			"version":  version,
		}),
		SOPID:   sopID,
		GroupID: groupID,
		Title:   title,
		Version: version,
	}
}
