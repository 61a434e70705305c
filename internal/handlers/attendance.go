package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/services"
)

type AttendanceHandler struct {
	attendance *services.AttendanceService
	members    *services.MemberService
	coaches    *services.CoachService
	groups     *services.GroupService
}

func NewAttendanceHandler(
	attendance *services.AttendanceService,
	members *services.MemberService,
	coaches *services.CoachService,
	groups *services.GroupService,
) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, members: members, coaches: coaches, groups: groups}
}

// Index renders the attendance forms with the sessions of the last 30 days.
// ?group_id=N preloads that group's members into the attendance sheet.
func (h *AttendanceHandler) Index(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	sessions, err := h.attendance.CoachSessions(now.AddDate(0, 0, -30), now.AddDate(0, 0, 1))
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, sessions)
		return
	}
	groups, err := h.groups.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	coaches, err := h.coaches.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	groupID := queryUint(r, "group_id")
	var members []models.Member
	if groupID != 0 {
		if members, err = h.members.ByGroup(groupID); err != nil {
			fail(w, r, err)
			return
		}
	}
	render(w, r, "attendance.html", map[string]any{
		"Sessions": sessions,
		"Groups":   groups,
		"Coaches":  coaches,
		"Members":  members,
		"GroupID":  groupID,
		"Places":   models.AttendancePlaces,
		"Today":    now.Format(models.DateLayout),
	})
}

// clockTime combines a date and an HH:MM time in the server's zone. Blank
// input gives the zero time, which the service reports as required.
func clockTime(date, clock string) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(models.DateLayout+" 15:04", date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, badRequest("invalid time %q %q", date, clock)
	}
	return t, nil
}

func (h *AttendanceHandler) RecordCoachSession(w http.ResponseWriter, r *http.Request) {
	cs := &models.CoachSession{}
	if isJSONBody(r) {
		if err := decodeJSON(r, cs); err != nil {
			fail(w, r, err)
			return
		}
	} else {
		if err := parseForm(r); err != nil {
			fail(w, r, err)
			return
		}
		var err error
		if cs.StartsAt, err = clockTime(r.FormValue("date"), r.FormValue("start")); err != nil {
			fail(w, r, err)
			return
		}
		if cs.EndsAt, err = clockTime(r.FormValue("date"), r.FormValue("end")); err != nil {
			fail(w, r, err)
			return
		}
		cs.CoachID = formUint(r, "coach_id")
		cs.GroupID = formUint(r, "group_id")
		cs.Place = r.FormValue("place")
	}
	if err := h.attendance.RecordCoachSession(cs); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, cs, "/attendance")
}

type sheetInput struct {
	Date    string              `json:"date"`
	GroupID *uint               `json:"group_id"`
	Entries []services.Presence `json:"entries"`
}

// RecordMemberSessions stores a group attendance sheet. The form carries
// member_ids plus present_<id>, minutes_<id> and note_<id> per member.
func (h *AttendanceHandler) RecordMemberSessions(w http.ResponseWriter, r *http.Request) {
	var in sheetInput
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			fail(w, r, err)
			return
		}
	} else {
		if err := parseForm(r); err != nil {
			fail(w, r, err)
			return
		}
		in.Date = r.FormValue("date")
		in.GroupID = formUint(r, "group_id")
		for _, id := range formIDs(r, "member_ids") {
			key := strconv.FormatUint(uint64(id), 10)
			in.Entries = append(in.Entries, services.Presence{
				MemberID: id,
				Present:  formBool(r, "present_"+key),
				Minutes:  formInt(r, "minutes_"+key),
				Note:     r.FormValue("note_" + key),
			})
		}
	}
	if err := h.attendance.RecordMemberSessions(in.Date, in.GroupID, in.Entries); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, map[string]any{"date": in.Date, "recorded": len(in.Entries)}, "/attendance")
}

func (h *AttendanceHandler) RecordCamp(w http.ResponseWriter, r *http.Request) {
	var in services.CampInput
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			fail(w, r, err)
			return
		}
	} else {
		if err := parseForm(r); err != nil {
			fail(w, r, err)
			return
		}
		in = services.CampInput{
			Date:      r.FormValue("date"),
			Where:     r.FormValue("where"),
			Coach:     r.FormValue("coach"),
			Trainings: formInt(r, "trainings"),
			Minutes:   formInt(r, "minutes"),
			MemberIDs: formIDs(r, "member_ids"),
		}
	}
	rows, err := h.attendance.RecordCamp(in)
	if err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, rows, "/attendance")
}

// CoachMinutes sums coach sessions for ?year= (default current year).
func (h *AttendanceHandler) CoachMinutes(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			fail(w, r, badRequest("invalid year %q", s))
			return
		}
		year = n
	}
	rows, err := h.attendance.CoachMinutes(year)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"year": year, "coaches": rows})
}

// MemberReport sums member attendance for ?group_id=&from=&to=.
func (h *AttendanceHandler) MemberReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var groupID *uint
	if id := queryUint(r, "group_id"); id != 0 {
		groupID = &id
	}
	rows, err := h.attendance.MemberAttendance(groupID, q.Get("from"), q.Get("to"))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

// MemberSessions lists one member's attendance records.
func (h *AttendanceHandler) MemberSessions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	q := r.URL.Query()
	rows, err := h.attendance.MemberSessions(id, q.Get("from"), q.Get("to"))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}
