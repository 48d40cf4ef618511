package privacy

import (
	"fmt"

	"dmr/internal/models"
	"dmr/internal/providers"
	"dmr/internal/structures"
)

// OptOutPlaceholder replaces the content of opted-out authors when the
// placeholder policy is active.
const OptOutPlaceholder = "[REMOVED BY USER REQUEST]"

type Policy string

const (
	PolicyPlaceholder Policy = "placeholder"
	PolicyDrop        Policy = "drop"
)

// Processor runs the full privacy pipeline on one message. The opt-out
// check always runs before PII scanning, so opted-out content is never
// scanned or logged in raw form.
type Processor struct {
	registry  *OptOutRegistry
	redactor  *Redactor
	policy    Policy
	redactPII bool
	logger    providers.Logger
}

func NewProcessor(conf *structures.Config, registry *OptOutRegistry, redactor *Redactor, logger providers.Logger) (*Processor, error) {
	policy := Policy(conf.Privacy.OptOutPolicy)
	switch policy {
	case PolicyPlaceholder, PolicyDrop:
	default:
		return nil, fmt.Errorf("unknown opt-out policy %q", conf.Privacy.OptOutPolicy)
	}

	return &Processor{
		registry:  registry,
		redactor:  redactor,
		policy:    policy,
		redactPII: conf.Privacy.RedactPII,
		logger:    logger,
	}, nil
}

// Process returns the message safe for persistence, or dropped=true when
// the message must be excluded entirely. The input is never mutated.
func (p *Processor) Process(msg *models.Message) (out *models.Message, dropped bool, err error) {
	if p.registry.Contains(msg.Author) {
		if p.policy == PolicyDrop {
			return nil, true, nil
		}
		return p.suppress(msg), false, nil
	}

	if !p.redactPII {
		return msg, false, nil
	}

	content, err := p.redactor.Redact(msg.Content)
	if err != nil {
		return nil, false, err
	}
	if content == msg.Content {
		return msg, false, nil
	}

	clone := *msg
	clone.Content = content
	return &clone, false, nil
}

// suppress blanks the content and strips attachment, reaction and
// mention metadata for an opted-out author.
func (p *Processor) suppress(msg *models.Message) *models.Message {
	clone := *msg
	clone.Content = OptOutPlaceholder
	clone.Attachments = nil
	clone.Reactions = nil
	clone.Mentions = nil
	return &clone
}
