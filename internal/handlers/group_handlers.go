package handlers

import (
	"net/http"
	"todolist/internal/handlers/dto"
	"todolist/internal/logger"
	"todolist/internal/service"

	"go.uber.org/zap"
)

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	groups, err := h.groups.ListGroups(r.Context(), userID)
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
		toPayload("groups", dto.FromUserGroups(groups)),
		toPayload("invites", dto.FromUserGroups(invites)),
	)
}

func (h *Handler) CreateGroupPage(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("form", dto.GroupForm{}))
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewGroupForm(values)

	created, err := h.groups.CreateGroup(r.Context(), currentUser(r), form.Name)
	if err != nil {
		handleError(w, r, err, form)
		return
	}

	logger.Info("HTTP: group created", zap.String("group_id", created.UUID.String()))
	redirect(w, r, groupsPath)
}

func (h *Handler) ViewGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id", "group")
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	view, err := h.groups.ViewGroup(r.Context(), currentUser(r), groupID)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("group", dto.FromGroupView(view)))
}

// GroupAction handles the group page form. A username field means invite and wins over the
// delete and leave buttons; delete is checked before leave.
func (h *Handler) GroupAction(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id", "group")
	if err != nil {
		handleError(w, r, err, nil)
		return
	}

	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewGroupActionForm(values)
	userID := currentUser(r)

	switch {
	case values.Has("username"):
		if err := h.groups.Invite(r.Context(), userID, groupID, form.Username); err != nil {
			handleError(w, r, err, form)
			return
		}

		view, err := h.groups.ViewGroup(r.Context(), userID, groupID)
		if err != nil {
			handleError(w, r, err, nil)
			return
		}
		responseWithJSON(w, http.StatusOK,
			toPayload("group", dto.FromGroupView(view)),
			toPayload("message", "Invitation has been sent"),
		)

	case form.Delete:
		if err := h.groups.DeleteGroup(r.Context(), userID, groupID); err != nil {
			handleError(w, r, err, form)
			return
		}
		redirect(w, r, groupsPath)

	case form.Leave:
		deleted, err := h.groups.LeaveGroup(r.Context(), userID, groupID)
		if err != nil {
			handleError(w, r, err, form)
			return
		}
		if deleted {
			logger.Info("HTTP: group removed after its last member left", zap.String("group_id", groupID.String()))
		}
		redirect(w, r, groupsPath)

	default:
		handleError(w, r, service.NewBusinessError(service.CodeValidation, "Unknown group action"), form)
	}
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewInvitationForm(values)
	if err := dto.Validate(form); err != nil {
		handleError(w, r, err, form)
		return
	}

	accepted, err := h.groups.AcceptInvite(r.Context(), currentUser(r), form.Group)
	if err != nil {
		handleError(w, r, err, form)
		return
	}

	logger.Info("HTTP: invitation accepted", zap.String("group_id", accepted.UUID.String()))
	redirect(w, r, safeNext(form.Next, groupsPath))
}

func (h *Handler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewInvitationForm(values)
	if err := dto.Validate(form); err != nil {
		handleError(w, r, err, form)
		return
	}

	if err := h.groups.DeclineInvite(r.Context(), currentUser(r), form.Group); err != nil {
		handleError(w, r, err, form)
		return
	}
	redirect(w, r, safeNext(form.Next, groupsPath))
}
