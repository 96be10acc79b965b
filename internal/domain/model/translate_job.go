package model

import (
	"time"

	"subtitle-translate/internal/domain"
)

type TranslateJobStatus string

const (
	TranslateJobProcessing TranslateJobStatus = "processing"
	TranslateJobCompleted  TranslateJobStatus = "completed"
)

// TranslateJob is the persisted unit of work. The order of Cues is fixed at
// creation; Cursor only ever moves forward.
type TranslateJob struct {
	ID             string    `json:"jobId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	TargetLanguage string    `json:"targetLanguage"`
	Note           string    `json:"note,omitempty"`
	Cues           []Cue     `json:"cues"`
	Cursor         int       `json:"cursor"`
	Completed      bool      `json:"completed"`
	Total          int       `json:"total"`
}

func NewTranslateJob(id string, cues []Cue, targetLanguage, note string) (*TranslateJob, error) {
	if len(cues) == 0 {
		return nil, domain.ErrEmptySubtitle
	}
	if id == "" || targetLanguage == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	owned := make([]Cue, len(cues))
	copy(owned, cues)
	return &TranslateJob{
		ID:             id,
		CreatedAt:      now,
		UpdatedAt:      now,
		TargetLanguage: targetLanguage,
		Note:           note,
		Cues:           owned,
		Total:          len(owned),
	}, nil
}

// Claim reserves up to n cues starting at the cursor and advances the cursor
// past them. It returns the half-open range [start, end) of claimed positions.
func (j *TranslateJob) Claim(n int) (start, end int) {
	start = j.Cursor
	if start > j.Total {
		start = j.Total
	}
	end = start
	if n > 0 {
		end = start + n
		if end > j.Total {
			end = j.Total
		}
	}
	j.Cursor = end
	return start, end
}

// Resolve records the translation for the cue at position i. An empty
// translation leaves the cue untranslated so the source text is used.
func (j *TranslateJob) Resolve(i int, translated string) {
	if i < 0 || i >= len(j.Cues) {
		return
	}
	j.Cues[i].TranslatedText = translated
}

// Settle marks the job completed once every cue has been claimed.
func (j *TranslateJob) Settle() {
	if j.Cursor >= j.Total {
		j.Completed = true
	}
	j.UpdatedAt = time.Now().UTC()
}

// Processed counts cues that carry a translation.
func (j *TranslateJob) Processed() int {
	n := 0
	for _, c := range j.Cues {
		if c.Translated() {
			n++
		}
	}
	return n
}

func (j *TranslateJob) Status() TranslateJobStatus {
	if j.Completed {
		return TranslateJobCompleted
	}
	return TranslateJobProcessing
}

// Progress is the snapshot returned to pollers. SRT is only set once the job
// has completed.
type Progress struct {
	JobID     string
	Status    TranslateJobStatus
	Completed bool
	Cursor    int
	Total     int
	Processed int
	SRT       string
}
