package controller

import "net/http"

// handleCreateProfile регистрирует пользователя при первом входе
func (c *Controller) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := decodeJSON(r, &req, true); err != nil {
		c.writeError(w, r, err, "create_profile")
		return
	}

	profile, err := c.identity.CreateProfile(r.Context(), bearerToken(r), req.Role, req.FullName)
	if err != nil {
		c.writeError(w, r, err, "create_profile")
		return
	}

	writeJSON(w, http.StatusCreated, newProfileResponse(profile))
}

func (c *Controller) handleGetMyProfile(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())

	profile, err := c.identity.GetProfile(r.Context(), p, p.ID)
	if err != nil {
		c.writeError(w, r, err, "get_profile")
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (c *Controller) handleSetRole(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		c.writeError(w, r, err, "set_role")
		return
	}

	var req setRoleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "set_role")
		return
	}

	p := PrincipalFrom(r.Context())
	if err := c.identity.SetRole(r.Context(), p, id, req.Role); err != nil {
		c.writeError(w, r, err, "set_role")
		return
	}

	profile, err := c.identity.GetProfile(r.Context(), p, id)
	if err != nil {
		c.writeError(w, r, err, "set_role")
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}
