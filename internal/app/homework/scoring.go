package homework

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/assess"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/messages"
	"github.com/airenas/speakhw/internal/pkg/status"
)

type scoreRequest struct {
	SubmissionID  string `json:"submission_id"`
	ReferenceText string `json:"referenceText"`
	Language      string `json:"language"`
	Async         bool   `json:"async"`
}

type scoreHandler struct {
	data *ServiceData
}

func (h scoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input scoreRequest
	if err := decode(r, &input); err != nil {
		sendError(w, err)
		return
	}
	if input.Async && h.data.MessageSender != nil {
		h.enqueue(w, &input)
		return
	}
	res, err := h.data.Assess.RunScoring(r.Context(), input.SubmissionID, input.ReferenceText, input.Language)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, struct {
		OK bool `json:"ok"`
		*assess.Outcome
	}{OK: true, Outcome: res})
}

func (h scoreHandler) enqueue(w http.ResponseWriter, input *scoreRequest) {
	id := strings.TrimSpace(input.SubmissionID)
	var need []string
	if id == "" {
		need = append(need, "submission_id")
	}
	if strings.TrimSpace(input.ReferenceText) == "" {
		need = append(need, "referenceText")
	}
	if len(need) > 0 {
		sendError(w, apperr.NewBadInput(need...))
		return
	}
	cmdapp.Log.Infof("Queue scoring of %s", id)
	err := h.data.MessageSender.Send(messages.NewScoreMessage(id, input.ReferenceText, input.Language), messages.Score, "")
	if err != nil {
		sendError(w, errors.Wrap(err, "Can't send score message"))
		return
	}
	sendJSON(w, struct {
		OK bool `json:"ok"`
		assess.ResultView
	}{OK: true, ResultView: assess.ResultView{Status: status.Pending.String(), SubmissionID: id}})
}

type resultHandler struct {
	data *ServiceData
}

func (h resultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := h.data.Assess.GetResult(r.Context(), id)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, struct {
		OK bool `json:"ok"`
		*assess.ResultView
	}{OK: true, ResultView: res})
}
