package persistence

import (
	"github.com/airenas/speakhw/internal/pkg/scoring"
)

//Document store names
const (
	AssignmentsLog      = "assignments.ndjson"
	SubmissionsLog      = "submissions.ndjson"
	SubmissionImagesLog = "submissions_images.ndjson"
	ResultsLog          = "results.ndjson"
)

//Result provider and version values
const (
	ResultProvider = "azure-s2t"
	ResultVersion  = "scoring-v1"
	//ErrNoSpeech is stored in results with stt_failed status
	ErrNoSpeech = "no_speech_or_invalid_audio"
)

//AssignmentDoc returns the detail document name
func AssignmentDoc(id string) string {
	return "assignments/" + id + ".json"
}

//ResultDoc returns the result document name
func ResultDoc(submissionID string) string {
	return "results/" + submissionID + ".json"
}

//InboxLog returns the student's inbox log name
func InboxLog(studentID string) string {
	return "inbox/" + studentID + ".ndjson"
}

//RosterDoc returns the teacher's roster document name
func RosterDoc(teacherID string) string {
	return "roster/teachers/" + teacherID + ".json"
}

type (
	//Submission is a line of the submissions log
	Submission struct {
		ID           string `json:"id"`
		StudentID    string `json:"student_id"`
		AssignmentID string `json:"assignment_id"`
		AudioKey     string `json:"cos_key"`
		Status       string `json:"status"`
		CreatedAt    string `json:"created_at"`
		ResultKey    string `json:"result_key,omitempty"`
	}

	//ResultScores marshals to {} when no scores are available
	ResultScores struct {
		*scoring.Scores
	}

	//Analysis keeps alignment counts, WER is nil when nothing was recognized
	Analysis struct {
		N   int      `json:"N"`
		S   int      `json:"S"`
		D   int      `json:"D"`
		I   int      `json:"I"`
		WER *float64 `json:"WER"`
	}

	//Alignment wraps word level diff
	Alignment struct {
		Words []scoring.WordOp `json:"words"`
	}

	//Result is the scoring result document
	Result struct {
		Provider       string       `json:"provider"`
		Version        string       `json:"version"`
		RecognizedText string       `json:"recognizedText"`
		ReferenceText  string       `json:"referenceText"`
		Scores         ResultScores `json:"scores"`
		Alignment      Alignment    `json:"alignment"`
		Analysis       Analysis     `json:"analysis"`
		SubmissionID   string       `json:"submission_id"`
		Language       string       `json:"language"`
		ScoredAt       string       `json:"scored_at"`
		Status         string       `json:"status"`
		Error          string       `json:"error,omitempty"`
	}

	//ResultIndex is a line of the results log
	ResultIndex struct {
		SubmissionID string `json:"submission_id"`
		ResultKey    string `json:"result_key"`
		Overall      *int   `json:"overall"`
		ScoredAt     string `json:"scored_at"`
		Status       string `json:"status"`
	}

	//Item is a word or a dialogue line of an assignment
	Item struct {
		ID       string  `json:"id"`
		Type     string  `json:"type"`
		Text     string  `json:"text"`
		Speaker  string  `json:"speaker,omitempty"`
		AudioKey *string `json:"audio_cos_key"`
		FileURL  *string `json:"fileUrl"`
		TTSError string  `json:"tts_error,omitempty"`
	}

	//Assignment is the header of the assignment detail document
	Assignment struct {
		ID            string `json:"assignment_id"`
		Title         string `json:"title"`
		Note          string `json:"note"`
		ReferenceText string `json:"referenceText"`
		Language      string `json:"language"`
		CreatedAt     string `json:"created_at"`
		CreatedBy     string `json:"created_by"`
		ItemsCount    int    `json:"itemsCount"`
		HasAudio      bool   `json:"hasAudio"`
	}

	//AssignmentDetail is the document at assignments/<id>.json
	AssignmentDetail struct {
		Assignment Assignment `json:"assignment"`
		Items      []Item     `json:"items"`
	}

	//AssignmentIndex is a line of the assignments log
	AssignmentIndex struct {
		ID         string `json:"assignment_id"`
		Title      string `json:"title"`
		Note       string `json:"note"`
		CreatedAt  string `json:"created_at"`
		CreatedBy  string `json:"created_by"`
		ItemsCount int    `json:"itemsCount"`
		HasAudio   bool   `json:"hasAudio"`
	}

	//InboxRecord is a line of the student's inbox log
	InboxRecord struct {
		Type         string `json:"type"`
		AssignmentID string `json:"assignment_id"`
		Title        string `json:"title"`
		Note         string `json:"note"`
		CreatedAt    string `json:"created_at"`
		From         string `json:"from"`
	}

	//ImageUpload is a line of the submission images log
	ImageUpload struct {
		SubmissionID string `json:"submission_id"`
		StudentID    string `json:"student_id"`
		AssignmentID string `json:"assignment_id"`
		Count        int    `json:"count"`
		Prefix       string `json:"prefix"`
		CreatedAt    string `json:"created_at"`
	}

	//Roster lists teacher's students
	Roster struct {
		Students []struct {
			StudentID string `json:"student_id"`
		} `json:"students"`
	}
)
