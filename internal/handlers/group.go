package handlers

import (
	"net/http"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/services"
)

type GroupHandler struct {
	groups  *services.GroupService
	members *services.MemberService
}

func NewGroupHandler(groups *services.GroupService, members *services.MemberService) *GroupHandler {
	return &GroupHandler{groups: groups, members: members}
}

// List shows every group with its member count. With ?id=N the members of
// that group are listed as well.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	counts, err := h.groups.Counts()
	if err != nil {
		fail(w, r, err)
		return
	}
	data := map[string]any{"Groups": counts}
	if id := queryUint(r, "id"); id != 0 {
		members, err := h.members.ByGroup(id)
		if err != nil {
			fail(w, r, err)
			return
		}
		data["Selected"] = id
		data["Members"] = members
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, counts)
		return
	}
	render(w, r, "groups.html", data)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			fail(w, r, err)
			return
		}
	} else {
		in.Name, in.Description = r.FormValue("name"), r.FormValue("description")
	}
	g, err := h.groups.Create(in.Name, in.Description)
	if err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, g, "/groups")
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.groups.Delete(id); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, "/groups")
}

// Assign sets a member's group; an empty group_id unassigns.
func (h *GroupHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var groupID *uint
	if isJSONBody(r) {
		var in struct {
			GroupID *uint `json:"group_id"`
		}
		if err := decodeJSON(r, &in); err != nil {
			fail(w, r, err)
			return
		}
		groupID = in.GroupID
	} else {
		groupID = formUint(r, "group_id")
	}
	if err := h.groups.AssignMember(id, groupID); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"member_id": id, "group_id": groupID}, "/members/"+r.PathValue("id"))
}
