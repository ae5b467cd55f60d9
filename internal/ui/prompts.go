package ui

// Prompts queues yes/no questions until the user answers them in a dialog.
// Questions are answered in the order they were asked.
type Prompts struct {
	queue []prompt
}

type prompt struct {
	question string
	answer   func(bool)
}

func NewPrompts() *Prompts {
	return &Prompts{}
}

// Confirm queues a question
func (p *Prompts) Confirm(question string, answer func(yes bool)) {
	p.queue = append(p.queue, prompt{question: question, answer: answer})
}

// Current returns the question waiting for an answer
func (p *Prompts) Current() (string, bool) {
	if len(p.queue) == 0 {
		return "", false
	}
	return p.queue[0].question, true
}

// Answer answers the current question. The answer callback may queue
// further questions.
func (p *Prompts) Answer(yes bool) {
	if len(p.queue) == 0 {
		return
	}
	head := p.queue[0]
	p.queue = p.queue[1:]
	if head.answer != nil {
		head.answer(yes)
	}
}

// Len returns the number of unanswered questions
func (p *Prompts) Len() int { return len(p.queue) }
