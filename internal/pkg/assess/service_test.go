package assess

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/docstore"
	"github.com/airenas/speakhw/internal/pkg/persistence"
	"github.com/airenas/speakhw/internal/pkg/test"
	"github.com/airenas/speakhw/internal/pkg/test/mocks"
)

var ctx = context.Background()

type testData struct {
	srv  *Service
	ms   *test.MemoryStore
	docs *docstore.Store
	rec  *mocks.Recognizer
}

func newTestData(t *testing.T) *testData {
	t.Helper()
	res := &testData{ms: test.NewMemoryStore(), rec: &mocks.Recognizer{}}
	res.docs = docstore.New(res.ms, "db/")
	var err error
	res.srv, err = NewService(res.docs, res.rec, "en-US")
	require.Nil(t, err)
	res.srv.now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 123456000, time.UTC) }
	return res
}

func (td *testData) addSubmission(t *testing.T, id, key string) {
	t.Helper()
	require.Nil(t, td.docs.AppendLine(ctx, persistence.SubmissionsLog,
		persistence.Submission{ID: id, StudentID: "s1", AssignmentID: "a1", AudioKey: key, Status: "pending"}))
	if key != "" {
		td.ms.Data[key] = []byte("audio")
	}
}

func (td *testData) submission(t *testing.T, id string) persistence.Submission {
	t.Helper()
	var res persistence.Submission
	require.Nil(t, td.docs.FindFirst(ctx, persistence.SubmissionsLog, "id", id, &res))
	return res
}

func TestNewService_Checks(t *testing.T) {
	_, err := NewService(nil, &mocks.Recognizer{}, "en")
	assert.NotNil(t, err)
	_, err = NewService(docstore.New(test.NewMemoryStore(), ""), nil, "en")
	assert.NotNil(t, err)
}

func TestRunScoring(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "submissions/s1/2025-W03/sub1.mp3")
	td.rec.On("Recognize", []byte("audio"), "en-GB", "audio/mpeg").Return("I like apple.", nil)

	res, err := td.srv.RunScoring(ctx, "sub1", "I like apples", "en-GB")

	require.Nil(t, err)
	assert.Equal(t, "scored", res.Status)
	assert.Equal(t, "db/results/sub1.json", res.ResultKey)
	require.NotNil(t, res.Result.Scores.Scores)
	assert.Equal(t, 67, res.Result.Scores.Overall)
	assert.Equal(t, 67, res.Result.Scores.Pronunciation)
	assert.Equal(t, 2, res.Result.Analysis.N)
	assert.Equal(t, 1, res.Result.Analysis.S)
	require.NotNil(t, res.Result.Analysis.WER)
	assert.Equal(t, 0.3333, *res.Result.Analysis.WER)
	assert.Equal(t, 3, len(res.Result.Alignment.Words))
	assert.Equal(t, "2025-01-15T10:00:00.123456Z", res.Result.ScoredAt)

	var stored persistence.Result
	require.Nil(t, td.docs.ReadDocument(ctx, "results/sub1.json", &stored))
	assert.Equal(t, "I like apple.", stored.RecognizedText)
	assert.Equal(t, "azure-s2t", stored.Provider)
	assert.Equal(t, "scoring-v1", stored.Version)

	lines, err := td.docs.ReadLines(ctx, persistence.ResultsLog, 0)
	require.Nil(t, err)
	require.Equal(t, 1, len(lines))
	assert.Contains(t, lines[0], `"overall":67`)
	assert.Contains(t, lines[0], `"status":"scored"`)

	sub := td.submission(t, "sub1")
	assert.Equal(t, "scored", sub.Status)
	assert.Equal(t, "db/results/sub1.json", sub.ResultKey)
	assert.Equal(t, "s1", sub.StudentID)
	td.rec.AssertExpectations(t)
}

func TestRunScoring_DefaultLanguageAndWav(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "submissions/s1/2025-W03/sub1.wav")
	td.rec.On("Recognize", mock.Anything, "en-US", "audio/wav").Return("hello", nil)

	res, err := td.srv.RunScoring(ctx, " sub1 ", "hello", "")

	require.Nil(t, err)
	assert.Equal(t, "scored", res.Status)
	assert.Equal(t, 100, res.Result.Scores.Overall)
	assert.Equal(t, "en-US", res.Result.Language)
}

func TestRunScoring_EmptyRecognitionIsSTTFailed(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	td.rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return("  ", nil)

	res, err := td.srv.RunScoring(ctx, "sub1", "I like apples", "en-GB")

	require.Nil(t, err)
	assert.Equal(t, "stt_failed", res.Status)
	assert.Nil(t, res.Result.Analysis.WER)
	assert.Nil(t, res.Result.Scores.Scores)
	assert.Equal(t, 0, len(res.Result.Alignment.Words))
	assert.Equal(t, "no_speech_or_invalid_audio", res.Result.Error)

	raw := td.ms.String("db/results/sub1.json")
	assert.Contains(t, raw, `"scores":{}`)
	assert.Contains(t, raw, `"WER":null`)
	assert.Contains(t, raw, `"words":[]`)
	assert.Contains(t, td.ms.String("db/results.ndjson"), `"overall":null`)
	assert.Equal(t, "stt_failed", td.submission(t, "sub1").Status)
}

func TestRunScoring_RecognizerErrorIsSTTFailed(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	td.rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return("", apperr.ErrProviderTimeout)

	res, err := td.srv.RunScoring(ctx, "sub1", "I like apples", "en-GB")

	require.Nil(t, err)
	assert.Equal(t, "stt_failed", res.Status)
	assert.Equal(t, "stt_failed", td.submission(t, "sub1").Status)
}

func TestRunScoring_OnlyPunctuationIsScored(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	td.rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return("...", nil)

	res, err := td.srv.RunScoring(ctx, "sub1", "I like apples", "en-GB")

	require.Nil(t, err)
	assert.Equal(t, "scored", res.Status)
	assert.Equal(t, 3, res.Result.Analysis.D)
	assert.Equal(t, 1.0, *res.Result.Analysis.WER)
	assert.Equal(t, 0, res.Result.Scores.Overall)
}

func TestRunScoring_Rescore(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	td.rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return("hello", nil)

	_, err := td.srv.RunScoring(ctx, "sub1", "hello", "en-GB")
	require.Nil(t, err)
	_, err = td.srv.RunScoring(ctx, "sub1", "hello", "en-GB")
	require.Nil(t, err)

	lines, _ := td.docs.ReadLines(ctx, persistence.SubmissionsLog, 0)
	assert.Equal(t, 1, len(lines))
	lines, _ = td.docs.ReadLines(ctx, persistence.ResultsLog, 0)
	assert.Equal(t, 2, len(lines))
	assert.Equal(t, 2, td.ms.Puts["db/results/sub1.json"])
}

func TestRunScoring_BadInput(t *testing.T) {
	td := newTestData(t)
	_, err := td.srv.RunScoring(ctx, "", " ", "en-GB")
	bi, ok := apperr.IsBadInput(err)
	require.True(t, ok)
	assert.Equal(t, []string{"submission_id", "referenceText"}, bi.Need)
}

func TestRunScoring_SubmissionNotFound(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	_, err := td.srv.RunScoring(ctx, "sub2", "hello", "en-GB")
	assert.True(t, errors.Is(err, ErrSubmissionNotFound))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, "submission_not_found", apperr.Code(err))
	td.rec.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunScoring_SubmissionLogFails(t *testing.T) {
	td := newTestData(t)
	td.ms.FailGet["db/submissions.ndjson"] = true
	_, err := td.srv.RunScoring(ctx, "sub2", "hello", "en-GB")
	assert.NotNil(t, err)
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRunScoring_AudioNotFound(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	delete(td.ms.Data, "a/sub1.mp3")
	td.addSubmission(t, "sub2", "")

	_, err := td.srv.RunScoring(ctx, "sub1", "hello", "en-GB")
	assert.True(t, errors.Is(err, ErrAudioNotFound))
	assert.Equal(t, "audio_not_found", apperr.Code(err))
	_, err = td.srv.RunScoring(ctx, "sub2", "hello", "en-GB")
	assert.True(t, errors.Is(err, ErrAudioNotFound))
}

func TestRunScoring_FirstMatchWins(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/first.mp3")
	td.addSubmission(t, "sub1", "a/second.wav")
	td.rec.On("Recognize", mock.Anything, mock.Anything, "audio/mpeg").Return("hello", nil)

	_, err := td.srv.RunScoring(ctx, "sub1", "hello", "en-GB")

	require.Nil(t, err)
	lines, _ := td.docs.ReadLines(ctx, persistence.SubmissionsLog, 0)
	require.Equal(t, 2, len(lines))
	assert.Contains(t, lines[0], `"status":"scored"`)
	assert.Contains(t, lines[1], `"status":"pending"`)
}

func TestRunScoring_PartialFailureLeavesStaleStatus(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	td.rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return("hello", nil)
	td.ms.FailPut["db/results.ndjson"] = true

	_, err := td.srv.RunScoring(ctx, "sub1", "hello", "en-GB")

	assert.NotNil(t, err)
	_, ok := td.ms.Data["db/results/sub1.json"]
	assert.True(t, ok)
	assert.Equal(t, "pending", td.submission(t, "sub1").Status)
}

func TestGetResult(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")
	td.rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return("hello", nil)
	_, err := td.srv.RunScoring(ctx, "sub1", "hello", "en-GB")
	require.Nil(t, err)

	res, err := td.srv.GetResult(ctx, "sub1")

	require.Nil(t, err)
	assert.Equal(t, "scored", res.Status)
	require.NotNil(t, res.Result)
	assert.Equal(t, 100, res.Result.Scores.Overall)
}

func TestGetResult_Pending(t *testing.T) {
	td := newTestData(t)
	td.addSubmission(t, "sub1", "a/sub1.mp3")

	res, err := td.srv.GetResult(ctx, "sub1")

	require.Nil(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Nil(t, res.Result)
	b, _ := json.Marshal(res)
	assert.False(t, strings.Contains(string(b), "result\""))
}

func TestGetResult_Unknown(t *testing.T) {
	td := newTestData(t)
	res, err := td.srv.GetResult(ctx, "sub1")
	require.Nil(t, err)
	assert.Equal(t, "unknown", res.Status)
}

func TestGetResult_Fails(t *testing.T) {
	td := newTestData(t)
	td.ms.FailExists["db/results/sub1.json"] = true
	_, err := td.srv.GetResult(ctx, "sub1")
	assert.NotNil(t, err)
}

func TestAudioContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", audioContentType("a/b.MP3"))
	assert.Equal(t, "audio/wav", audioContentType("a/b.wav"))
	assert.Equal(t, "audio/wav", audioContentType("a/b"))
}
