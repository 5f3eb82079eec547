package status

//Status represents submission state
type Status string

const (
	//Pending - audio uploaded, waiting for scoring
	Pending Status = "pending"
	//Scored - scoring finished with a recognized text
	Scored Status = "scored"
	//STTFailed - recognizer failed or returned empty text
	STTFailed Status = "stt_failed"
)

var known = map[Status]bool{Pending: true, Scored: true, STTFailed: true}

func (s Status) String() string {
	return string(s)
}

//Final returns true if no more scoring is expected
func (s Status) Final() bool {
	return s == Scored || s == STTFailed
}

//From converts persisted value, unknown values map to Pending
func From(st string) Status {
	if s := Status(st); known[s] {
		return s
	}
	return Pending
}
