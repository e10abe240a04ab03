// Package wizard holds the step machine driving which view a chat sees.
// Transitions only move forward; the single escape hatch is StartNew, which
// returns to the landing view without deleting the finished session.
package wizard

import "github.com/artelier/promptforge/internal/domain"

type Step int

const (
	// StepLogin is shown when no identity is cached for the chat.
	StepLogin Step = iota
	// StepLanding shows the category picker.
	StepLanding
	// StepGenerate collects the free-form idea and offers quick generation,
	// guided Q&A, settings and uploads.
	StepGenerate
	// StepChat runs the guided Q&A.
	StepChat
	// StepFinal displays the composed prompt.
	StepFinal
)

func (s Step) String() string {
	switch s {
	case StepLogin:
		return "login"
	case StepLanding:
		return "landing"
	case StepGenerate:
		return "generate"
	case StepChat:
		return "chat"
	case StepFinal:
		return "final"
	default:
		return "unknown"
	}
}

// ParseStep restores a step from its stored name. Unknown names fall back to
// the landing view rather than failing, so schema drift never bricks a chat.
func ParseStep(name string) Step {
	switch name {
	case "login":
		return StepLogin
	case "landing":
		return StepLanding
	case "generate":
		return StepGenerate
	case "chat":
		return StepChat
	case "final":
		return StepFinal
	default:
		return StepLanding
	}
}

// FromBackend maps the backend's session step names onto wizard steps.
func FromBackend(step string) Step {
	switch step {
	case domain.BackendStepCategory:
		return StepLanding
	case domain.BackendStepVisualSettings:
		return StepGenerate
	case domain.BackendStepChat:
		return StepChat
	case domain.BackendStepFinalPrompt:
		return StepFinal
	default:
		return StepLanding
	}
}

// Allowed reports whether moving from one step to another is legal.
func Allowed(from, to Step) bool {
	if from == to {
		return true
	}
	switch from {
	case StepLogin:
		return to == StepLanding
	case StepLanding:
		return to == StepGenerate || to == StepLogin
	case StepGenerate:
		return to == StepChat || to == StepFinal || to == StepLogin
	case StepChat:
		return to == StepFinal || to == StepLogin
	case StepFinal:
		// StartNew is the only way back.
		return to == StepLanding || to == StepLogin
	default:
		return false
	}
}
