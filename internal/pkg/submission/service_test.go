package submission

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/docstore"
	"github.com/airenas/speakhw/internal/pkg/persistence"
	"github.com/airenas/speakhw/internal/pkg/test"
)

var ctx = context.Background()

func newTestService(t *testing.T) (*Service, *test.MemoryStore) {
	t.Helper()
	ms := test.NewMemoryStore()
	res, err := NewService(docstore.New(ms, "db/"), 1)
	require.Nil(t, err)
	res.now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }
	res.newID = func() string { return "abc123def456" }
	return res, ms
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestNewService_Checks(t *testing.T) {
	_, err := NewService(nil, 2)
	assert.NotNil(t, err)
	_, err = NewService(docstore.New(test.NewMemoryStore(), ""), 0)
	assert.NotNil(t, err)
}

func TestNewID(t *testing.T) {
	id := newID()
	assert.Equal(t, 12, len(id))
	assert.NotEqual(t, id, newID())
	assert.Regexp(t, "^[0-9a-f]{12}$", id)
}

func TestCreate(t *testing.T) {
	s, ms := newTestService(t)

	res, err := s.Create(ctx, &CreateRequest{AssignmentID: " a1 ", StudentID: "S1", AudioB64: b64("mp3data")})

	require.Nil(t, err)
	assert.Equal(t, "abc123def456", res.SubmissionID)
	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, "submissions/S1/2025-W03/abc123def456.mp3", res.AudioKey)
	assert.Equal(t, "mp3data", ms.String(res.AudioKey))
	assert.Equal(t, "audio/mpeg", ms.ContentTypes[res.AudioKey])

	sub, err := s.Get(ctx, "abc123def456")
	require.Nil(t, err)
	assert.Equal(t, persistence.Submission{ID: "abc123def456", StudentID: "S1", AssignmentID: "a1",
		AudioKey: res.AudioKey, Status: "pending", CreatedAt: "2025-01-15T10:00:00.000000Z"}, *sub)
}

func TestCreate_GivenID(t *testing.T) {
	s, _ := newTestService(t)
	res, err := s.Create(ctx, &CreateRequest{AssignmentID: "a1", StudentID: "S1", AudioB64: b64("x"), SubmissionID: "my"})
	require.Nil(t, err)
	assert.Equal(t, "my", res.SubmissionID)
}

func TestCreate_Appends(t *testing.T) {
	s, ms := newTestService(t)
	for _, id := range []string{"1", "2", "3"} {
		_, err := s.Create(ctx, &CreateRequest{AssignmentID: "a1", StudentID: "S1", AudioB64: b64("x"), SubmissionID: id})
		require.Nil(t, err)
	}
	lines := strings.Split(strings.TrimSpace(ms.String("db/submissions.ndjson")), "\n")
	require.Equal(t, 3, len(lines))
	assert.Contains(t, lines[0], `"id":"1"`)
	assert.Contains(t, lines[2], `"id":"3"`)
}

func TestCreate_BadInput(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Create(ctx, &CreateRequest{})
	bi, ok := apperr.IsBadInput(err)
	require.True(t, ok)
	assert.Equal(t, []string{"assignment_id", "student_id", "audio_b64"}, bi.Need)

	_, err = s.Create(ctx, &CreateRequest{AssignmentID: "a1", StudentID: "S1", AudioB64: "###"})
	_, ok = apperr.IsBadInput(err)
	assert.True(t, ok)
	assert.Equal(t, "bad_base64", apperr.Code(err))
}

func TestCreate_TooLarge(t *testing.T) {
	s, ms := newTestService(t)
	_, err := s.Create(ctx, &CreateRequest{AssignmentID: "a1", StudentID: "S1", AudioB64: strings.Repeat("A", 1024*1024*4/3+8)})
	assert.True(t, errors.Is(err, apperr.ErrTooLarge))
	assert.Equal(t, 0, len(ms.Data))
}

func TestCreate_PutFails(t *testing.T) {
	s, ms := newTestService(t)
	ms.FailPut["submissions/S1/2025-W03/abc123def456.mp3"] = true
	_, err := s.Create(ctx, &CreateRequest{AssignmentID: "a1", StudentID: "S1", AudioB64: b64("x")})
	assert.NotNil(t, err)
	_, ok := ms.Data["db/submissions.ndjson"]
	assert.False(t, ok)
}

func TestUploadImages(t *testing.T) {
	s, ms := newTestService(t)

	res, err := s.UploadImages(ctx, &UploadImagesRequest{AssignmentID: "a1", StudentID: "S1", Images: []Image{
		{Filename: "page.PNG", ImageB64: b64("png")},
		{ImageB64: b64("jpg")},
		{Filename: "../x.gif", ImageB64: b64("gif"), Mime: "image/gif"},
		{Filename: "doc.bin", ImageB64: b64("bin")},
	}})

	require.Nil(t, err)
	assert.Equal(t, "abc123def456", res.SubmissionID)
	require.Equal(t, 4, len(res.Saved))
	p := "submissions/S1/2025-W03/images/abc123def456/"
	assert.Equal(t, SavedImage{Filename: "page.PNG", Key: p + "page.PNG", Size: 3}, res.Saved[0])
	assert.Equal(t, p+"img_2.jpg", res.Saved[1].Key)
	assert.Equal(t, p+"x.gif", res.Saved[2].Key)
	assert.Equal(t, "image/png", ms.ContentTypes[p+"page.PNG"])
	assert.Equal(t, "image/jpeg", ms.ContentTypes[p+"img_2.jpg"])
	assert.Equal(t, "image/gif", ms.ContentTypes[p+"x.gif"])
	assert.Equal(t, "", ms.ContentTypes[p+"doc.bin"])
	log := ms.String("db/submissions_images.ndjson")
	assert.Contains(t, log, `"count":4`)
	assert.Contains(t, log, `"prefix":"`+p+`"`)
}

func TestUploadImages_Fails(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.UploadImages(ctx, &UploadImagesRequest{})
	bi, ok := apperr.IsBadInput(err)
	require.True(t, ok)
	assert.Equal(t, []string{"assignment_id", "student_id", "images[]"}, bi.Need)

	_, err = s.UploadImages(ctx, &UploadImagesRequest{AssignmentID: "a1", StudentID: "S1",
		Images: []Image{{ImageB64: b64("a")}, {}}})
	bi, ok = apperr.IsBadInput(err)
	require.True(t, ok)
	assert.Equal(t, []string{"images[1].image_b64"}, bi.Need)

	_, err = s.UploadImages(ctx, &UploadImagesRequest{AssignmentID: "a1", StudentID: "S1",
		Images: []Image{{ImageB64: "YQ"}}})
	assert.Equal(t, "bad_base64", apperr.Code(err))

	big := base64.StdEncoding.EncodeToString(make([]byte, 1024*1024+1))
	_, err = s.UploadImages(ctx, &UploadImagesRequest{AssignmentID: "a1", StudentID: "S1",
		Images: []Image{{ImageB64: big}}})
	assert.True(t, errors.Is(err, apperr.ErrTooLarge))
}

func TestList(t *testing.T) {
	s, ms := newTestService(t)
	ms.Data["db/submissions.ndjson"] = []byte(`{"id":"1","student_id":"S1","assignment_id":"a1","status":"scored"}
{"id":"2","student_id":"S2","assignment_id":"a1","status":"pending"}
{olia
{"id":"1","student_id":"S1","assignment_id":"a1","status":"pending"}
{"id":"3","student_id":"S1","assignment_id":"a2","status":"pending"}
`)
	res, err := s.List(ctx, "a1", "")
	require.Nil(t, err)
	require.Equal(t, 2, len(res))
	assert.Equal(t, "scored", res[0].Status)
	assert.Equal(t, "2", res[1].ID)

	res, err = s.List(ctx, "", "S1")
	require.Nil(t, err)
	require.Equal(t, 2, len(res))
	assert.Equal(t, "3", res[1].ID)
}

func TestList_Fails(t *testing.T) {
	s, ms := newTestService(t)
	ms.FailGet["db/submissions.ndjson"] = true
	_, err := s.List(ctx, "", "")
	assert.NotNil(t, err)
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Get(ctx, "1")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	_, err = s.Get(ctx, "")
	_, ok := apperr.IsBadInput(err)
	assert.True(t, ok)
}

func TestImageName(t *testing.T) {
	assert.Equal(t, "img_1.jpg", imageName("", 0))
	assert.Equal(t, "img_3.jpg", imageName(" ", 2))
	assert.Equal(t, "a.png", imageName("c:\\dir\\a.png", 0))
	assert.Equal(t, "img_1.jpg", imageName("..", 0))
}
