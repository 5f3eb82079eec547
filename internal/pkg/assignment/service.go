package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/docstore"
	"github.com/airenas/speakhw/internal/pkg/persistence"
	"github.com/airenas/speakhw/internal/pkg/tts"
	"github.com/airenas/speakhw/internal/pkg/utils"
)

const (
	listLimit       = 500
	maxRosterTarget = 20
	//DefaultInboxLimit is used when no inbox limit is provided
	DefaultInboxLimit = 20
)

//SpeechCache returns storage key of synthesized text
type SpeechCache interface {
	Synthesize(ctx context.Context, text string, cfg tts.Config) (string, error)
}

//VoiceSelector returns default voice for language, empty if unknown
type VoiceSelector interface {
	Voice(language string) string
}

//Service publishes assignments and delivers them to students
type Service struct {
	docs   *docstore.Store
	cache  SpeechCache
	voices VoiceSelector
	now    func() time.Time
}

type (
	//DialogueLine is an input dialogue line
	DialogueLine struct {
		Speaker string `json:"speaker,omitempty"`
		Text    string `json:"text"`
	}

	//PublishRequest is the teacher's publish input
	PublishRequest struct {
		TeacherID      string         `json:"teacher_id"`
		Title          string         `json:"title"`
		Note           string         `json:"note"`
		Words          []string       `json:"words"`
		Dialogue       []DialogueLine `json:"dialogue"`
		TTS            tts.Config     `json:"tts"`
		TargetStudents []string       `json:"target_students"`
	}

	//PublishResult is returned after publish
	PublishResult struct {
		AssignmentID string             `json:"assignment_id"`
		Items        []persistence.Item `json:"items"`
	}
)

//NewService creates assignment service, voices may be nil
func NewService(docs *docstore.Store, cache SpeechCache, voices VoiceSelector) (*Service, error) {
	if docs == nil {
		return nil, errors.New("No document store")
	}
	if cache == nil {
		return nil, errors.New("No speech cache")
	}
	return &Service{docs: docs, cache: cache, voices: voices, now: time.Now}, nil
}

//TTSConfig fills voice from the voice map when only language is given, then applies defaults
func (s *Service) TTSConfig(c tts.Config) tts.Config {
	if c.Voice == "" && c.Language != "" && s.voices != nil {
		c.Voice = s.voices.Voice(c.Language)
	}
	return c.WithDefaults()
}

//Preview synthesizes one text and returns its storage key
func (s *Service) Preview(ctx context.Context, text string, cfg tts.Config) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.NewBadInputMsg("text required")
	}
	cfg = s.TTSConfig(cfg)
	cmdapp.Log.Infof("TTS preview: %s/%s", cfg.Language, cfg.Voice)
	key, err := s.cache.Synthesize(ctx, text, cfg)
	if err != nil {
		return "", apperr.WithCode(err, "tts_failed")
	}
	return key, nil
}

//ResignURL returns the relative url a client exchanges for a signed link
func ResignURL(key string) string {
	return "/cos/resign/" + key
}

//Publish synthesizes all items, saves the assignment and delivers it to students' inboxes.
//A failed item synthesis does not fail publish, the item is saved with tts_error instead
func (s *Service) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	if req == nil {
		return nil, apperr.NewBadInputMsg("missing body")
	}
	teacherID := strings.TrimSpace(req.TeacherID)
	title := strings.TrimSpace(req.Title)
	words := cleanWords(req.Words)
	dialogue := cleanDialogue(req.Dialogue)
	var need []string
	if teacherID == "" {
		need = append(need, "teacher_id")
	}
	if title == "" {
		need = append(need, "title")
	}
	if len(words) == 0 && len(dialogue) == 0 {
		need = append(need, "words_or_dialogue")
	}
	if len(need) > 0 {
		return nil, apperr.NewBadInput(need...)
	}
	cfg := s.TTSConfig(req.TTS)
	cmdapp.Log.Infof("Publishing '%s' by %s: %d words, %d lines", title, teacherID, len(words), len(dialogue))

	items := s.synthesizeItems(ctx, makeItems(words, dialogue), cfg)
	now := s.now()
	id, err := s.freeID(ctx, now)
	if err != nil {
		return nil, err
	}
	a := persistence.Assignment{ID: id, Title: title, Note: req.Note, Language: cfg.Language,
		CreatedAt: utils.ISOTime(now), CreatedBy: teacherID, ItemsCount: len(items), HasAudio: hasAudio(items)}

	if err := s.docs.AppendLine(ctx, persistence.AssignmentsLog, persistence.AssignmentIndex{ID: a.ID, Title: a.Title,
		Note: a.Note, CreatedAt: a.CreatedAt, CreatedBy: a.CreatedBy, ItemsCount: a.ItemsCount, HasAudio: a.HasAudio}); err != nil {
		return nil, errors.Wrap(err, "Can't save assignment index")
	}
	if err := s.docs.WriteDocument(ctx, persistence.AssignmentDoc(a.ID),
		persistence.AssignmentDetail{Assignment: a, Items: items}); err != nil {
		return nil, errors.Wrap(err, "Can't save assignment")
	}
	targets := cleanIDs(req.TargetStudents)
	if len(targets) == 0 {
		targets = s.rosterStudents(ctx, teacherID)
	}
	s.deliver(ctx, a, targets)
	return &PublishResult{AssignmentID: a.ID, Items: items}, nil
}

func (s *Service) synthesizeItems(ctx context.Context, items []persistence.Item, cfg tts.Config) []persistence.Item {
	for i := range items {
		key, err := s.cache.Synthesize(ctx, items[i].Text, cfg)
		if err != nil {
			cmdapp.Log.Warnf("Item %s synthesis failed: %v", items[i].ID, err)
			items[i].TTSError = err.Error()
			continue
		}
		url := ResignURL(key)
		items[i].AudioKey, items[i].FileURL = &key, &url
	}
	return items
}

func (s *Service) rosterStudents(ctx context.Context, teacherID string) []string {
	var r persistence.Roster
	if err := s.docs.ReadDocument(ctx, persistence.RosterDoc(teacherID), &r); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			cmdapp.Log.Warnf("Can't read roster of %s: %v", teacherID, err)
		}
		return nil
	}
	var res []string
	for _, st := range r.Students {
		if id := strings.TrimSpace(st.StudentID); id != "" {
			res = append(res, id)
		}
		if len(res) == maxRosterTarget {
			break
		}
	}
	return res
}

func (s *Service) deliver(ctx context.Context, a persistence.Assignment, students []string) {
	rec := persistence.InboxRecord{Type: "assignment", AssignmentID: a.ID, Title: a.Title, Note: a.Note,
		CreatedAt: a.CreatedAt, From: a.CreatedBy}
	for _, sid := range students {
		if err := s.docs.AppendLine(ctx, persistence.InboxLog(sid), rec); err != nil {
			cmdapp.Log.Warnf("Can't deliver %s to %s: %v", a.ID, sid, err)
		}
	}
}

//List returns assignment index records from the last 500 lines, newest first.
//Empty teacherID returns all records
func (s *Service) List(ctx context.Context, teacherID string) ([]persistence.AssignmentIndex, error) {
	lines, err := s.docs.ReadLines(ctx, persistence.AssignmentsLog, listLimit)
	if err != nil {
		cmdapp.Log.Warnf("Can't read assignments: %v", err)
	}
	teacherID = strings.TrimSpace(teacherID)
	res := []persistence.AssignmentIndex{}
	for i := len(lines) - 1; i >= 0; i-- {
		var a persistence.AssignmentIndex
		if json.Unmarshal([]byte(lines[i]), &a) != nil {
			continue
		}
		if teacherID != "" && a.CreatedBy != teacherID {
			continue
		}
		res = append(res, a)
	}
	return res, nil
}

//Get returns assignment detail document
func (s *Service) Get(ctx context.Context, id string) (*persistence.AssignmentDetail, error) {
	id = strings.Trim(strings.TrimSpace(id), "/")
	if id == "" {
		return nil, apperr.NewBadInputMsg("assignment_id required in path")
	}
	var res persistence.AssignmentDetail
	if err := s.docs.ReadDocument(ctx, persistence.AssignmentDoc(id), &res); err != nil {
		return nil, errors.Wrapf(err, "assignment %s", id)
	}
	return &res, nil
}

//Inbox returns the last limit records of student's inbox, a read failure gives an empty list
func (s *Service) Inbox(ctx context.Context, studentID string, limit int) ([]persistence.InboxRecord, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, apperr.NewBadInputMsg("student_id required")
	}
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	lines, err := s.docs.ReadLines(ctx, persistence.InboxLog(studentID), limit)
	if err != nil {
		cmdapp.Log.Warnf("Can't read inbox of %s: %v", studentID, err)
	}
	res := []persistence.InboxRecord{}
	for _, l := range lines {
		var r persistence.InboxRecord
		if json.Unmarshal([]byte(l), &r) != nil {
			continue
		}
		res = append(res, r)
	}
	return res, nil
}

func makeItems(words []string, dialogue []DialogueLine) []persistence.Item {
	res := make([]persistence.Item, 0, len(words)+len(dialogue))
	for i, w := range words {
		res = append(res, persistence.Item{ID: fmt.Sprintf("w%d", i+1), Type: "word", Text: w})
	}
	for i, d := range dialogue {
		res = append(res, persistence.Item{ID: fmt.Sprintf("d%d", i+1), Type: "dialogue", Text: d.Text, Speaker: d.Speaker})
	}
	return res
}

func cleanWords(words []string) []string {
	var res []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			res = append(res, w)
		}
	}
	return res
}

func cleanDialogue(lines []DialogueLine) []DialogueLine {
	var res []DialogueLine
	for _, d := range lines {
		txt := strings.TrimSpace(d.Text)
		if txt == "" {
			continue
		}
		res = append(res, DialogueLine{Text: txt, Speaker: strings.TrimSpace(d.Speaker)})
	}
	return res
}

func cleanIDs(ids []string) []string {
	var res []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			res = append(res, id)
		}
	}
	return res
}

func hasAudio(items []persistence.Item) bool {
	for _, it := range items {
		if it.AudioKey != nil && *it.AudioKey != "" {
			return true
		}
	}
	return false
}

//newID makes readable id from ISO week and a random suffix
func newID(t time.Time) string {
	return fmt.Sprintf("a_%s_%s", utils.ISOWeek(t), uuid.New().String()[:8])
}

//freeID picks an id that has no assignment document yet
func (s *Service) freeID(ctx context.Context, t time.Time) (string, error) {
	for i := 0; i < 5; i++ {
		id := newID(t)
		ok, err := s.docs.Objects().Exists(ctx, s.docs.Key(persistence.AssignmentDoc(id)))
		if err != nil {
			return "", errors.Wrap(err, "Can't check assignment id")
		}
		if !ok {
			return id, nil
		}
	}
	return "", errors.New("Can't find free assignment id")
}
