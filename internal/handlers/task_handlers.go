package handlers

import (
	"net/http"
	"todolist/internal/handlers/dto"
	"todolist/internal/logger"
	"todolist/internal/service"

	"go.uber.org/zap"
)

// CurrentTasks shows the personal list followed by one list per group, plus pending invitations.
func (h *Handler) CurrentTasks(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	buckets, err := h.tasks.ListCurrentTasks(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	invites, err := h.groups.ListInvites(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("buckets", dto.FromBuckets(buckets)),
		toPayload("invites", dto.FromUserGroups(invites)),
	)
}

func (h *Handler) CompletedTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListCompletedTasks(r.Context(), currentUser(r))
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (h *Handler) CreateTaskPage(w http.ResponseWriter, r *http.Request) {
	h.renderTaskForm(w, r, dto.TaskForm{}, nil)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewTaskForm(values)
	if err := dto.Validate(form); err != nil {
		handleError(w, r, err, form)
		return
	}

	created, err := h.tasks.CreateTask(r.Context(), currentUser(r), service.CreateTaskParams{
		Title:       form.Title,
		Description: form.Description,
		Important:   form.Important,
		GroupID:     form.GroupID(),
	})
	if err != nil {
		handleError(w, r, err, form)
		return
	}

	logger.Info("HTTP: task created", zap.String("task_id", created.UUID.String()))
	redirect(w, r, currentPath)
}

func (h *Handler) ViewTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id", "task")
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	view, err := h.tasks.ViewTask(r.Context(), currentUser(r), taskID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTaskView(view)))
}

func (h *Handler) EditTaskPage(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id", "task")
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	view, err := h.tasks.ViewTask(r.Context(), currentUser(r), taskID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	form := dto.TaskForm{
		Title:       view.Task.Title,
		Description: view.Task.Description,
		Important:   view.Task.Important,
	}
	if view.Task.GroupID != nil {
		form.Group = view.Task.GroupID.String()
	}
	resp := dto.FromTaskView(view)
	h.renderTaskForm(w, r, form, &resp)
}

func (h *Handler) EditTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id", "task")
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewTaskForm(values)
	if err := dto.Validate(form); err != nil {
		handleError(w, r, err, form)
		return
	}

	_, err = h.tasks.EditTask(r.Context(), currentUser(r), taskID, service.EditTaskParams{
		Title:       form.Title,
		Description: form.Description,
		Important:   form.Important,
		GroupID:     form.GroupID(),
	})
	if err != nil {
		handleError(w, r, err, form)
		return
	}
	redirect(w, r, currentPath)
}

func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id", "task")
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	if _, err := h.tasks.CompleteTask(r.Context(), currentUser(r), taskID); err != nil {
		handleError(w, r, err, nil)
		return
	}
	redirect(w, r, currentPath)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id", "task")
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), currentUser(r), taskID); err != nil {
		handleError(w, r, err, nil)
		return
	}

	logger.Info("HTTP: task deleted", zap.String("task_id", taskID.String()))
	redirect(w, r, currentPath)
}

// renderTaskForm answers the create/edit page: the form, its group choices and, when editing, the task.
func (h *Handler) renderTaskForm(w http.ResponseWriter, r *http.Request, form dto.TaskForm, current *dto.TaskResponse) {
	groups, err := h.groups.ListGroups(r.Context(), currentUser(r))
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	payload := []Payload{
		toPayload("form", form),
		toPayload("groups", dto.FromUserGroups(groups)),
	}
	if current != nil {
		payload = append(payload, toPayload("task", current))
	}
	responseWithJSON(w, http.StatusOK, payload...)
}
