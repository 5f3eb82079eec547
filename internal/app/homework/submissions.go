package homework

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/submission"
)

type createHandler struct {
	data *ServiceData
}

func (h createHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Submission from %s", r.Host)
	limitBody(w, r, h.data.Submissions.MaxMB())
	var input submission.CreateRequest
	if err := decode(r, &input); err != nil {
		sendSubmitError(w, err, h.data.Submissions.MaxMB())
		return
	}
	res, err := h.data.Submissions.Create(r.Context(), &input)
	if err != nil {
		sendSubmitError(w, err, h.data.Submissions.MaxMB())
		return
	}
	sendJSON(w, struct {
		OK bool `json:"ok"`
		*submission.CreateResult
	}{OK: true, CreateResult: res})
}

type uploadImageHandler struct {
	data *ServiceData
}

func (h uploadImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Images from %s", r.Host)
	limitBody(w, r, h.data.Submissions.MaxMB())
	var input submission.UploadImagesRequest
	if err := decode(r, &input); err != nil {
		sendSubmitError(w, err, h.data.Submissions.MaxMB())
		return
	}
	res, err := h.data.Submissions.UploadImages(r.Context(), &input)
	if err != nil {
		sendSubmitError(w, err, h.data.Submissions.MaxMB())
		return
	}
	sendJSON(w, struct {
		OK bool `json:"ok"`
		*submission.UploadImagesResult
	}{OK: true, UploadImagesResult: res})
}

//submissionsHandler serves list and get by id
type submissionsHandler struct {
	data *ServiceData
}

func (h submissionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id, ok := mux.Vars(r)["id"]; ok {
		res, err := h.data.Submissions.Get(r.Context(), id)
		if err != nil {
			sendError(w, err)
			return
		}
		sendJSON(w, struct {
			OK         bool        `json:"ok"`
			Submission interface{} `json:"submission"`
		}{OK: true, Submission: res})
		return
	}
	q := r.URL.Query()
	res, err := h.data.Submissions.List(r.Context(), q.Get("assignment_id"), q.Get("student_id"))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, listResult{OK: true, Items: res})
}

//limitBody caps the json body, base64 payloads are a third larger than the limit
func limitBody(w http.ResponseWriter, r *http.Request, maxMB int) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxMB*4+1)<<20)
	}
}

func sendSubmitError(w http.ResponseWriter, err error, maxMB int) {
	res := newErrorResult(err)
	if errors.Is(err, apperr.ErrTooLarge) {
		res.LimitMB = maxMB
	}
	sendErrorResult(w, err, res)
}
