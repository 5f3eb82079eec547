package homework

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/assignment"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/persistence"
	"github.com/airenas/speakhw/internal/pkg/tts"
)

type previewRequest struct {
	Text string `json:"text"`
	tts.Config
	TTS *tts.Config `json:"tts"`
}

type previewHandler struct {
	data *ServiceData
}

func (h previewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input previewRequest
	if err := decode(r, &input); err != nil {
		sendError(w, err)
		return
	}
	cfg := input.Config
	if input.TTS != nil {
		cfg = *input.TTS
	}
	key, err := h.data.Assignments.Preview(r.Context(), input.Text, cfg)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, struct {
		OK      bool   `json:"ok"`
		Key     string `json:"key"`
		FileURL string `json:"fileUrl"`
	}{OK: true, Key: key, FileURL: assignment.ResignURL(key)})
}

type publishHandler struct {
	data *ServiceData
}

func (h publishHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input assignment.PublishRequest
	if err := decode(r, &input); err != nil {
		sendError(w, err)
		return
	}
	res, err := h.data.Assignments.Publish(r.Context(), &input)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, struct {
		OK bool `json:"ok"`
		*assignment.PublishResult
	}{OK: true, PublishResult: res})
}

type listResult struct {
	OK         bool        `json:"ok"`
	Items      interface{} `json:"items"`
	NextCursor *string     `json:"nextCursor"`
}

//assignmentsHandler serves list by teacher and get by id
type assignmentsHandler struct {
	data *ServiceData
}

func (h assignmentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id, ok := mux.Vars(r)["id"]; ok {
		cmdapp.Log.Infof("Get assignment %s", id)
		res, err := h.data.Assignments.Get(r.Context(), id)
		if err != nil {
			sendError(w, err)
			return
		}
		sendJSON(w, res)
		return
	}
	teacherID := strings.TrimSpace(r.URL.Query().Get("teacher_id"))
	res, err := h.data.Assignments.List(r.Context(), teacherID)
	if err != nil {
		sendError(w, err)
		return
	}
	if res == nil {
		res = []persistence.AssignmentIndex{}
	}
	sendJSON(w, listResult{OK: true, Items: res})
}

type inboxHandler struct {
	data *ServiceData
}

func (h inboxHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if ls := q.Get("limit"); ls != "" {
		var err error
		if limit, err = strconv.Atoi(ls); err != nil {
			sendError(w, apperr.NewBadInputMsg("wrong limit "+ls))
			return
		}
	}
	res, err := h.data.Assignments.Inbox(r.Context(), q.Get("student_id"), limit)
	if err != nil {
		sendError(w, err)
		return
	}
	if res == nil {
		res = []persistence.InboxRecord{}
	}
	sendJSON(w, listResult{OK: true, Items: res})
}
