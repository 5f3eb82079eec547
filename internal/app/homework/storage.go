package homework

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/storage"
)

type resignResult struct {
	OK        bool   `json:"ok"`
	Key       string `json:"key"`
	FileURL   string `json:"fileUrl"`
	ExpiresIn int    `json:"expires_in"`
}

//resignHandler exchanges a stored key for a temporary download link
type resignHandler struct {
	data *ServiceData
}

func (h resignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := mux.Vars(r)["key"]
	if !ok {
		key = r.URL.Query().Get("key")
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		sendError(w, apperr.NewBadInput("key"))
		return
	}
	if !allowedKey(key, h.data.AllowedPrefixes) {
		sendError(w, errors.Wrapf(apperr.ErrForbidden, "key %s", key))
		return
	}
	cmdapp.Log.Infof("Resign %s", key)
	signer, ok := h.data.Objects.(storage.URLSigner)
	if !ok {
		sendError(w, storage.ErrSignNotSupported)
		return
	}
	exists, err := h.data.Objects.Exists(r.Context(), key)
	if err != nil {
		sendError(w, errors.Wrapf(err, "Can't check %s", key))
		return
	}
	if !exists {
		sendError(w, errors.Wrapf(apperr.ErrNotFound, "key %s", key))
		return
	}
	url, err := signer.SignURL(r.Context(), key, h.data.ResignExpires)
	if err != nil {
		sendError(w, errors.Wrapf(err, "Can't sign %s", key))
		return
	}
	sendJSON(w, resignResult{OK: true, Key: key, FileURL: url, ExpiresIn: int(h.data.ResignExpires.Seconds())})
}

func allowedKey(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

type cosInfoHandler struct {
	data *ServiceData
}

func (h cosInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, struct {
		OK bool `json:"ok"`
		StoreInfo
		AllowedPrefixes []string `json:"allowedResignPrefixes"`
	}{OK: true, StoreInfo: h.data.Store, AllowedPrefixes: h.data.AllowedPrefixes})
}
