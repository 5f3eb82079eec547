package submission

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/docstore"
	"github.com/airenas/speakhw/internal/pkg/persistence"
	"github.com/airenas/speakhw/internal/pkg/status"
	"github.com/airenas/speakhw/internal/pkg/utils"
)

//Service stores student submissions
type Service struct {
	docs     *docstore.Store
	maxBytes int
	now      func() time.Time
	newID    func() string
}

type (
	//CreateRequest is an audio submission
	CreateRequest struct {
		AssignmentID string `json:"assignment_id"`
		StudentID    string `json:"student_id"`
		AudioB64     string `json:"audio_b64"`
		SubmissionID string `json:"submission_id"`
	}

	//CreateResult is returned for a stored audio submission
	CreateResult struct {
		SubmissionID string `json:"submission_id"`
		Status       string `json:"status"`
		AudioKey     string `json:"cos_key"`
	}

	//Image is one uploaded image
	Image struct {
		Filename string `json:"filename"`
		ImageB64 string `json:"image_b64"`
		Mime     string `json:"mime"`
	}

	//UploadImagesRequest is an image submission
	UploadImagesRequest struct {
		AssignmentID string  `json:"assignment_id"`
		StudentID    string  `json:"student_id"`
		Images       []Image `json:"images"`
		SubmissionID string  `json:"submission_id"`
	}

	//SavedImage describes a stored image
	SavedImage struct {
		Filename string `json:"filename"`
		Key      string `json:"cos_key"`
		Size     int    `json:"size_bytes"`
	}

	//UploadImagesResult is returned for stored images
	UploadImagesResult struct {
		SubmissionID string       `json:"submission_id"`
		Saved        []SavedImage `json:"saved"`
	}
)

//NewService creates submission service with upload limit in MB
func NewService(docs *docstore.Store, maxMB int) (*Service, error) {
	if docs == nil {
		return nil, errors.New("No document store")
	}
	if maxMB <= 0 {
		return nil, errors.Errorf("Wrong upload limit %d", maxMB)
	}
	return &Service{docs: docs, maxBytes: maxMB * 1024 * 1024, now: time.Now, newID: newID}, nil
}

//MaxMB returns upload limit
func (s *Service) MaxMB() int {
	return s.maxBytes / (1024 * 1024)
}

//Create stores submission audio and appends a pending submission record
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	if req == nil {
		return nil, apperr.NewBadInputMsg("missing body")
	}
	assignmentID := strings.TrimSpace(req.AssignmentID)
	studentID := strings.TrimSpace(req.StudentID)
	var need []string
	if assignmentID == "" {
		need = append(need, "assignment_id")
	}
	if studentID == "" {
		need = append(need, "student_id")
	}
	if req.AudioB64 == "" {
		need = append(need, "audio_b64")
	}
	if len(need) > 0 {
		return nil, apperr.NewBadInput(need...)
	}
	if len(req.AudioB64)*3/4 > s.maxBytes {
		return nil, errors.Wrapf(apperr.ErrTooLarge, "limit %dMB", s.MaxMB())
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioB64)
	if err != nil {
		return nil, apperr.WithCode(apperr.NewBadInputMsg("audio_b64 is not valid base64"), "bad_base64")
	}
	id := strings.TrimSpace(req.SubmissionID)
	if id == "" {
		id = s.newID()
	}
	now := s.now()
	key := weekPrefix(studentID, now) + id + ".mp3"
	cmdapp.Log.Infof("Saving submission %s: %s", id, key)
	if err := s.docs.Objects().Put(ctx, key, audio, "audio/mpeg"); err != nil {
		return nil, errors.Wrapf(err, "Can't save audio %s", key)
	}
	rec := persistence.Submission{ID: id, StudentID: studentID, AssignmentID: assignmentID, AudioKey: key,
		Status: status.Pending.String(), CreatedAt: utils.ISOTimeMicro(now)}
	if err := s.docs.AppendLine(ctx, persistence.SubmissionsLog, rec); err != nil {
		return nil, errors.Wrapf(err, "Can't save submission %s", id)
	}
	return &CreateResult{SubmissionID: id, Status: rec.Status, AudioKey: key}, nil
}

//UploadImages stores images of a submission, no scoring is done for them
func (s *Service) UploadImages(ctx context.Context, req *UploadImagesRequest) (*UploadImagesResult, error) {
	if req == nil {
		return nil, apperr.NewBadInputMsg("missing body")
	}
	assignmentID := strings.TrimSpace(req.AssignmentID)
	studentID := strings.TrimSpace(req.StudentID)
	var need []string
	if assignmentID == "" {
		need = append(need, "assignment_id")
	}
	if studentID == "" {
		need = append(need, "student_id")
	}
	if len(req.Images) == 0 {
		need = append(need, "images[]")
	}
	if len(need) > 0 {
		return nil, apperr.NewBadInput(need...)
	}
	id := strings.TrimSpace(req.SubmissionID)
	if id == "" {
		id = s.newID()
	}
	now := s.now()
	prefix := weekPrefix(studentID, now) + "images/" + id + "/"
	res := &UploadImagesResult{SubmissionID: id, Saved: []SavedImage{}}
	for i, img := range req.Images {
		if img.ImageB64 == "" {
			return nil, apperr.NewBadInput(fmt.Sprintf("images[%d].image_b64", i))
		}
		blob, err := base64.StdEncoding.Strict().DecodeString(img.ImageB64)
		if err != nil {
			return nil, apperr.WithCode(apperr.NewBadInputMsg(fmt.Sprintf("images[%d] is not valid base64", i)), "bad_base64")
		}
		if len(blob) > s.maxBytes {
			return nil, errors.Wrapf(apperr.ErrTooLarge, "images[%d], limit %dMB", i, s.MaxMB())
		}
		fn := imageName(img.Filename, i)
		key := prefix + fn
		if err := s.docs.Objects().Put(ctx, key, blob, imageContentType(fn, img.Mime)); err != nil {
			return nil, errors.Wrapf(err, "Can't save image %s", key)
		}
		res.Saved = append(res.Saved, SavedImage{Filename: fn, Key: key, Size: len(blob)})
	}
	cmdapp.Log.Infof("Saved %d images for %s", len(res.Saved), id)
	if err := s.docs.AppendLine(ctx, persistence.SubmissionImagesLog, persistence.ImageUpload{SubmissionID: id,
		StudentID: studentID, AssignmentID: assignmentID, Count: len(res.Saved), Prefix: prefix,
		CreatedAt: utils.ISOTimeMicro(now)}); err != nil {
		return nil, errors.Wrap(err, "Can't save images record")
	}
	return res, nil
}

//List returns submissions filtered by assignment and student, a record per id as the first log match
func (s *Service) List(ctx context.Context, assignmentID, studentID string) ([]persistence.Submission, error) {
	lines, err := s.docs.ReadLines(ctx, persistence.SubmissionsLog, 0)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read submissions")
	}
	assignmentID, studentID = strings.TrimSpace(assignmentID), strings.TrimSpace(studentID)
	seen := map[string]bool{}
	res := []persistence.Submission{}
	for _, l := range lines {
		var sub persistence.Submission
		if json.Unmarshal([]byte(l), &sub) != nil || sub.ID == "" || seen[sub.ID] {
			continue
		}
		seen[sub.ID] = true
		if (assignmentID != "" && sub.AssignmentID != assignmentID) || (studentID != "" && sub.StudentID != studentID) {
			continue
		}
		res = append(res, sub)
	}
	return res, nil
}

//Get returns the first submission record with the id
func (s *Service) Get(ctx context.Context, id string) (*persistence.Submission, error) {
	id = strings.Trim(strings.TrimSpace(id), "/")
	if id == "" {
		return nil, apperr.NewBadInputMsg("submission_id required in path")
	}
	var res persistence.Submission
	if err := s.docs.FindFirst(ctx, persistence.SubmissionsLog, "id", id, &res); err != nil {
		return nil, errors.Wrapf(err, "submission %s", id)
	}
	return &res, nil
}

func weekPrefix(studentID string, t time.Time) string {
	return "submissions/" + studentID + "/" + utils.ISOWeek(t) + "/"
}

func imageName(fn string, i int) string {
	fn = path.Base(strings.TrimSpace(strings.ReplaceAll(fn, "\\", "/")))
	if fn == "" || fn == "." || fn == "/" || fn == ".." {
		return fmt.Sprintf("img_%d.jpg", i+1)
	}
	return fn
}

func imageContentType(fn, mime string) string {
	if mime = strings.TrimSpace(mime); mime != "" {
		return mime
	}
	l := strings.ToLower(fn)
	switch {
	case strings.HasSuffix(l, ".png"):
		return "image/png"
	case strings.HasSuffix(l, ".jpg"), strings.HasSuffix(l, ".jpeg"):
		return "image/jpeg"
	}
	return ""
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
