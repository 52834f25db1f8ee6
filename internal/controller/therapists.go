package controller

import (
	"net/http"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/Freeeeeet/therapy_booking/internal/service"
)

func (c *Controller) handleListTherapists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	therapists, err := c.directory.List(r.Context(), PrincipalFrom(r.Context()), service.DirectoryQuery{
		Specialization: q.Get("specialization"),
		Search:         q.Get("q"),
		ApprovalStatus: model.ApprovalStatus(q.Get("approval_status")),
	})
	if err != nil {
		c.writeError(w, r, err, "list_therapists")
		return
	}

	resp := make([]therapistResponse, 0, len(therapists))
	for _, t := range therapists {
		resp = append(resp, newTherapistResponse(t))
	}

	writeJSON(w, http.StatusOK, map[string]any{"therapists": resp, "count": len(resp)})
}

func (c *Controller) handleGetTherapist(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		c.writeError(w, r, err, "get_therapist")
		return
	}

	t, err := c.directory.Get(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		c.writeError(w, r, err, "get_therapist")
		return
	}

	writeJSON(w, http.StatusOK, newTherapistResponse(t))
}

func (c *Controller) handleRegisterTherapist(w http.ResponseWriter, r *http.Request) {
	var req therapistRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "register_therapist")
		return
	}

	in := service.TherapistInput{}
	if req.FullName != nil {
		in.FullName = *req.FullName
	}
	if req.Specialization != nil {
		in.Specialization = *req.Specialization
	}
	if req.FeeCents != nil {
		in.FeeCents = *req.FeeCents
	}
	if req.Bio != nil {
		in.Bio = *req.Bio
	}
	if req.YearsExperience != nil {
		in.YearsExperience = *req.YearsExperience
	}
	if req.License != nil {
		in.License = *req.License
	}

	t, err := c.directory.Register(r.Context(), PrincipalFrom(r.Context()), in)
	if err != nil {
		c.writeError(w, r, err, "register_therapist")
		return
	}

	writeJSON(w, http.StatusCreated, newTherapistResponse(t))
}

func (c *Controller) handleUpdateTherapist(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		c.writeError(w, r, err, "update_therapist")
		return
	}

	var req therapistRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "update_therapist")
		return
	}

	t, err := c.directory.UpdateProfile(r.Context(), PrincipalFrom(r.Context()), id, service.TherapistPatch{
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		FeeCents:        req.FeeCents,
		Bio:             req.Bio,
		YearsExperience: req.YearsExperience,
		License:         req.License,
	})
	if err != nil {
		c.writeError(w, r, err, "update_therapist")
		return
	}

	writeJSON(w, http.StatusOK, newTherapistResponse(t))
}

func (c *Controller) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		c.writeError(w, r, err, "set_approval")
		return
	}

	var req approvalRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "set_approval")
		return
	}

	t, err := c.directory.SetApproval(r.Context(), PrincipalFrom(r.Context()), id, req.ApprovalStatus)
	if err != nil {
		c.writeError(w, r, err, "set_approval")
		return
	}

	writeJSON(w, http.StatusOK, newTherapistResponse(t))
}

func (c *Controller) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		c.writeError(w, r, err, "set_active")
		return
	}

	var req activeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "set_active")
		return
	}
	if req.Active == nil {
		c.writeError(w, r, model.NewValidationError("active", "is required"), "set_active")
		return
	}

	t, err := c.directory.SetActive(r.Context(), PrincipalFrom(r.Context()), id, *req.Active)
	if err != nil {
		c.writeError(w, r, err, "set_active")
		return
	}

	writeJSON(w, http.StatusOK, newTherapistResponse(t))
}
