package assess

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/docstore"
	"github.com/airenas/speakhw/internal/pkg/metrics"
	"github.com/airenas/speakhw/internal/pkg/persistence"
	"github.com/airenas/speakhw/internal/pkg/recognizer"
	"github.com/airenas/speakhw/internal/pkg/scoring"
	"github.com/airenas/speakhw/internal/pkg/status"
	"github.com/airenas/speakhw/internal/pkg/utils"
)

var (
	//ErrSubmissionNotFound is returned when the submission log has no such id
	ErrSubmissionNotFound = errors.WithMessage(apperr.ErrNotFound, "submission")
	//ErrAudioNotFound is returned when the submission's audio object is missing
	ErrAudioNotFound = errors.WithMessage(apperr.ErrNotFound, "audio")
)

//Service runs scoring of submissions and keeps their state
type Service struct {
	docs            *docstore.Store
	recognizer      recognizer.Recognizer
	defaultLanguage string
	now             func() time.Time
	outcomes        *prometheus.CounterVec
}

//Outcome is the result of a scoring run
type Outcome struct {
	Status       string              `json:"status"`
	SubmissionID string              `json:"submission_id"`
	ResultKey    string              `json:"result_key"`
	Result       *persistence.Result `json:"result"`
}

//ResultView is the current scoring state of a submission
type ResultView struct {
	Status       string              `json:"status"`
	SubmissionID string              `json:"submission_id"`
	Result       *persistence.Result `json:"result,omitempty"`
}

//NewService creates scoring service
func NewService(docs *docstore.Store, rec recognizer.Recognizer, defaultLanguage string) (*Service, error) {
	if docs == nil {
		return nil, errors.New("No document store")
	}
	if rec == nil {
		return nil, errors.New("No recognizer")
	}
	res := &Service{docs: docs, recognizer: rec, defaultLanguage: defaultLanguage, now: time.Now}
	res.outcomes = metrics.NewCounter("speakhw", "scoring_total", "Number of finished scoring runs by status", "status")
	if err := metrics.Register(res.outcomes); err != nil {
		return nil, errors.Wrap(err, "Can't register metrics")
	}
	return res, nil
}

//RunScoring recognizes submission's audio, scores it against referenceText and persists the result.
//
//Steps done: result document write, results log append, submission upsert.
//A failed step stops the run, earlier steps are not reverted.
func (s *Service) RunScoring(ctx context.Context, submissionID, referenceText, language string) (*Outcome, error) {
	submissionID = strings.TrimSpace(submissionID)
	referenceText = strings.TrimSpace(referenceText)
	var need []string
	if submissionID == "" {
		need = append(need, "submission_id")
	}
	if referenceText == "" {
		need = append(need, "referenceText")
	}
	if len(need) > 0 {
		return nil, apperr.NewBadInput(need...)
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = s.defaultLanguage
	}
	cmdapp.Log.Infof("Scoring submission %s", submissionID)

	var sub persistence.Submission
	if err := s.docs.FindFirst(ctx, persistence.SubmissionsLog, "id", submissionID, &sub); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.WithCode(errors.Wrap(ErrSubmissionNotFound, submissionID), "submission_not_found")
		}
		return nil, errors.Wrapf(err, "Can't load submission %s", submissionID)
	}
	audio, err := s.loadAudio(ctx, sub.AudioKey)
	if err != nil {
		return nil, err
	}

	recognized, err := s.recognizer.Recognize(ctx, audio, language, audioContentType(sub.AudioKey))
	if err != nil {
		cmdapp.Log.Warnf("Recognition of %s failed: %v", submissionID, err)
		recognized = ""
	}
	recognized = strings.TrimSpace(recognized)

	res := &persistence.Result{
		Provider:       persistence.ResultProvider,
		Version:        persistence.ResultVersion,
		RecognizedText: recognized,
		ReferenceText:  referenceText,
		Alignment:      persistence.Alignment{Words: []scoring.WordOp{}},
		SubmissionID:   submissionID,
		Language:       language,
		ScoredAt:       utils.ISOTimeMicro(s.now()),
	}
	var overall *int
	if recognized == "" {
		res.Status = status.STTFailed.String()
		res.Error = persistence.ErrNoSpeech
	} else {
		ops, cnt := scoring.Align(scoring.Tokenize(referenceText), scoring.Tokenize(recognized))
		sc, wer := scoring.Score(cnt)
		wer = scoring.RoundWER(wer)
		res.Status = status.Scored.String()
		res.Scores = persistence.ResultScores{Scores: &sc}
		res.Alignment.Words = ops
		res.Analysis = persistence.Analysis{N: cnt.N, S: cnt.S, D: cnt.D, I: cnt.I, WER: &wer}
		overall = &sc.Overall
	}

	if err := s.persist(ctx, res, overall); err != nil {
		return nil, err
	}
	s.outcomes.WithLabelValues(res.Status).Inc()
	cmdapp.Log.Infof("Submission %s: %s", submissionID, res.Status)
	return &Outcome{Status: res.Status, SubmissionID: submissionID,
		ResultKey: s.docs.Key(persistence.ResultDoc(submissionID)), Result: res}, nil
}

func (s *Service) loadAudio(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, apperr.WithCode(errors.Wrap(ErrAudioNotFound, "no audio key"), "audio_not_found")
	}
	ok, err := s.docs.Objects().Exists(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't check audio %s", key)
	}
	if !ok {
		return nil, apperr.WithCode(errors.Wrap(ErrAudioNotFound, key), "audio_not_found")
	}
	res, err := s.docs.Objects().Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.WithCode(errors.Wrap(ErrAudioNotFound, key), "audio_not_found")
		}
		return nil, errors.Wrapf(err, "Can't load audio %s", key)
	}
	return res, nil
}

func (s *Service) persist(ctx context.Context, res *persistence.Result, overall *int) error {
	doc := persistence.ResultDoc(res.SubmissionID)
	resultKey := s.docs.Key(doc)
	if err := s.docs.WriteDocument(ctx, doc, res); err != nil {
		return errors.Wrapf(err, "Can't save result %s", res.SubmissionID)
	}
	if err := s.docs.AppendLine(ctx, persistence.ResultsLog, persistence.ResultIndex{SubmissionID: res.SubmissionID,
		ResultKey: resultKey, Overall: overall, ScoredAt: res.ScoredAt, Status: res.Status}); err != nil {
		return errors.Wrapf(err, "Can't append results log for %s", res.SubmissionID)
	}
	err := s.docs.Upsert(ctx, persistence.SubmissionsLog, "id", res.SubmissionID, func(rec map[string]interface{}) {
		rec["status"] = res.Status
		rec["result_key"] = resultKey
	})
	return errors.Wrapf(err, "Can't update submission %s", res.SubmissionID)
}

//GetResult returns stored result or the submission status if there is no result yet.
//Status "unknown" is returned for a submission that does not exist
func (s *Service) GetResult(ctx context.Context, submissionID string) (*ResultView, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return nil, apperr.NewBadInput("submission_id")
	}
	doc := persistence.ResultDoc(submissionID)
	ok, err := s.docs.Objects().Exists(ctx, s.docs.Key(doc))
	if err != nil {
		return nil, errors.Wrapf(err, "Can't check result %s", submissionID)
	}
	if ok {
		var res persistence.Result
		if err := s.docs.ReadDocument(ctx, doc, &res); err != nil {
			return nil, errors.Wrapf(err, "Can't read result %s", submissionID)
		}
		st := res.Status
		if st == "" {
			st = status.Scored.String()
		}
		return &ResultView{Status: st, SubmissionID: submissionID, Result: &res}, nil
	}
	var sub persistence.Submission
	err = s.docs.FindFirst(ctx, persistence.SubmissionsLog, "id", submissionID, &sub)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return &ResultView{Status: "unknown", SubmissionID: submissionID}, nil
		}
		return nil, errors.Wrapf(err, "Can't load submission %s", submissionID)
	}
	return &ResultView{Status: sub.Status, SubmissionID: submissionID}, nil
}

func audioContentType(key string) string {
	if strings.HasSuffix(strings.ToLower(key), ".mp3") {
		return "audio/mpeg"
	}
	return "audio/wav"
}
