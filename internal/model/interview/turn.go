package interview

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerPersona Speaker = "persona"
	SpeakerUser    Speaker = "user"
)

// Turn is one utterance in the interview, attributed to the persona or the user.
type Turn struct {
	Text       string  `json:"text"`
	Speaker    Speaker `json:"speaker"`
	IsQuestion bool    `json:"isQuestion"`
}

// QAPair is an ordered question/answer pair derived from the turn history.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnsweredCount returns the number of user turns in the history.
func AnsweredCount(turns []Turn) int {
	count := 0
	for _, turn := range turns {
		if turn.Speaker == SpeakerUser {
			count++
		}
	}
	return count
}

// LastOpenQuestion scans the history backwards for the most recent persona
// question. It returns the empty string when no question has been asked yet.
func LastOpenQuestion(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Speaker == SpeakerPersona && turns[i].IsQuestion {
			return turns[i].Text
		}
	}
	return ""
}

// PairAnswers derives ordered question/answer pairs from the turn history.
// A newer persona question replaces a still-open one, so consecutive persona
// questions attribute the next user turn to the most recent question. Persona
// questions that never receive an answer, and user turns arriving while no
// question is open, are skipped. The derivation is a pure function of the
// history: calling it twice on the same turns yields identical pairs.
func PairAnswers(turns []Turn) []QAPair {
	pairs := make([]QAPair, 0, len(turns)/2)
	openQuestion := ""
	for _, turn := range turns {
		switch {
		case turn.Speaker == SpeakerPersona && turn.IsQuestion:
			openQuestion = turn.Text
		case turn.Speaker == SpeakerUser && openQuestion != "":
			pairs = append(pairs, QAPair{Question: openQuestion, Answer: turn.Text})
			openQuestion = ""
		}
	}
	return pairs
}
