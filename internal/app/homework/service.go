package homework

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/assess"
	"github.com/airenas/speakhw/internal/pkg/assignment"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/messages"
	"github.com/airenas/speakhw/internal/pkg/metrics"
	"github.com/airenas/speakhw/internal/pkg/storage"
	"github.com/airenas/speakhw/internal/pkg/submission"
	"github.com/airenas/speakhw/internal/pkg/text"
)

type serviceMetric struct {
	responseDur *prometheus.HistogramVec
}

//StoreInfo describes the configured object store for /cos/info
type StoreInfo struct {
	Provider string `json:"provider"`
	Bucket   string `json:"bucket"`
	Region   string `json:"region"`
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Assess      *assess.Service
	Assignments *assignment.Service
	Submissions *submission.Service
	Checker     *text.Checker
	Objects     storage.ObjectStore
	// MessageSender enables async scoring when set
	MessageSender messages.Sender

	Token           string
	AllowedPrefixes []string
	ResignExpires   time.Duration
	Store           StoreInfo
	Version         string

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
	now     func() time.Time
}

type errorResult struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Need    []string `json:"need,omitempty"`
	LimitMB int      `json:"limit_mb,omitempty"`
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      90 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		Handler:           newHandler(data),
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

func newHandler(data *ServiceData) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"*"},
		MaxAge:         300,
	})(NewRouter(data))
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	if data.metrics.responseDur == nil {
		data.metrics.responseDur = newResponseDur()
	}
	if data.health == nil {
		data.health = healthcheck.NewHandler()
	}
	if data.now == nil {
		data.now = time.Now
	}
	router := mux.NewRouter().StrictSlash(true)
	router.Methods("GET").Path("/ping").Handler(pingHandler{data: data})

	router.Methods("POST").Path("/tts/preview").Handler(data.instrument("tts", previewHandler{data: data}))
	router.Methods("POST").Path("/assignments/publish_tts").Handler(data.instrument("publish", publishHandler{data: data}))
	ah := data.instrument("assignments", assignmentsHandler{data: data})
	router.Methods("GET").Path("/assignments/list").Handler(ah)
	router.Methods("GET").Path("/assignments/get/{id}").Handler(ah)
	router.Methods("GET").Path("/student/inbox").Handler(data.instrument("inbox", inboxHandler{data: data}))

	router.Methods("POST").Path("/submissions/create").Handler(
		data.instrument("submit", data.authorized(createHandler{data: data})))
	router.Methods("POST").Path("/submissions/upload_image").Handler(
		data.instrument("submit", data.authorized(uploadImageHandler{data: data})))
	sh := data.instrument("submissions", submissionsHandler{data: data})
	router.Methods("GET").Path("/submissions/list").Handler(sh)
	router.Methods("GET").Path("/submissions/get/{id}").Handler(sh)

	router.Methods("POST").Path("/score/run").Handler(data.instrument("score", data.authorized(scoreHandler{data: data})))
	router.Methods("GET").Path("/results/{id}").Handler(data.instrument("result", resultHandler{data: data}))

	rh := data.instrument("resign", data.authorized(resignHandler{data: data}))
	router.Methods("GET").Path("/cos/resign").Handler(rh)
	router.Methods("GET").Path("/cos/resign/{key:.+}").Handler(rh)
	router.Methods("GET").Path("/cos/info").Handler(cosInfoHandler{data: data})

	router.Methods("POST").Path("/text/check_words").Handler(data.instrument("text", checkWordsHandler{data: data}))
	router.Methods("POST").Path("/text/validate").Handler(data.instrument("text", validateHandler{data: data}))

	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
	router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	return router
}

func newResponseDur() *prometheus.HistogramVec {
	return metrics.NewRequestDurations("homework_service")
}

func (data *ServiceData) instrument(name string, h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(data.metrics.responseDur.MustCurryWith(prometheus.Labels{"handler": name}), h)
}

//authorized checks the bearer token when one is configured
func (data *ServiceData) authorized(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if data.Token != "" {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(data.Token)) != 1 {
				sendError(w, errors.Wrap(apperr.ErrUnauthorized, "wrong bearer token"))
				return
			}
		}
		h.ServeHTTP(w, r)
	})
}

type pingHandler struct {
	data *ServiceData
}

func (h pingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, struct {
		OK      bool   `json:"ok"`
		Version string `json:"ver"`
		Time    int64  `json:"time"`
	}{OK: true, Version: h.data.Version, Time: h.data.now().Unix()})
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperr.NewBadInputMsg("missing body")
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errors.Wrapf(apperr.ErrTooLarge, "body over %d bytes", mbe.Limit)
		}
		return errors.Wrap(apperr.NewBadInputMsg("bad json"), err.Error())
	}
	return nil
}

func sendJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err := encoder.Encode(v)
	if err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
	}
}

func newErrorResult(err error) *errorResult {
	res := &errorResult{Error: apperr.Code(err), Message: err.Error()}
	if bi, ok := apperr.IsBadInput(err); ok {
		res.Need = bi.Need
	}
	return res
}

func sendError(w http.ResponseWriter, err error) {
	sendErrorResult(w, err, newErrorResult(err))
}

func sendErrorResult(w http.ResponseWriter, err error, res *errorResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPCode(err))
	if encErr := json.NewEncoder(w).Encode(res); encErr != nil {
		cmdapp.Log.Error(encErr)
	}
	cmdapp.Log.Error(err)
}
