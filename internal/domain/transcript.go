package domain

type AbsenceReason string

const (
	ReasonNone               AbsenceReason = ""
	ReasonAmbiguousAudio     AbsenceReason = "ambiguous_audio"
	ReasonServiceUnavailable AbsenceReason = "service_unavailable"
	ReasonEmpty              AbsenceReason = "empty"
)

// Transcript is the outcome of recognizing one sample: either recognized text
// or the reason nothing was recognized.
type Transcript struct {
	text   string
	reason AbsenceReason
}

func Present(text string) Transcript {
	if text == "" {
		return Absent(ReasonEmpty)
	}
	return Transcript{text: text}
}

func Absent(reason AbsenceReason) Transcript {
	if reason == ReasonNone {
		reason = ReasonEmpty
	}
	return Transcript{reason: reason}
}

// Text returns the recognized text and whether the transcript is present.
func (t Transcript) Text() (string, bool) {
	return t.text, t.reason == ReasonNone
}

func (t Transcript) Reason() AbsenceReason {
	return t.reason
}
