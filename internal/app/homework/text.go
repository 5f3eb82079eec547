package homework

import (
	"net/http"

	"github.com/airenas/speakhw/internal/pkg/text"
)

type checkWordsHandler struct {
	data *ServiceData
}

func (h checkWordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Words []string `json:"words"`
	}
	if err := decode(r, &input); err != nil {
		sendError(w, err)
		return
	}
	res := h.data.Checker.CheckWords(r.Context(), input.Words)
	sendJSON(w, struct {
		OK bool `json:"ok"`
		*text.CheckResult
	}{OK: true, CheckResult: res})
}

type validateHandler struct {
	data *ServiceData
}

func (h validateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Words    []string    `json:"words"`
		Dialogue []text.Line `json:"dialogue"`
	}
	if err := decode(r, &input); err != nil {
		sendError(w, err)
		return
	}
	res := h.data.Checker.Validate(r.Context(), input.Words, input.Dialogue)
	sendJSON(w, struct {
		OK bool `json:"ok"`
		*text.ValidateResult
	}{OK: true, ValidateResult: res})
}
