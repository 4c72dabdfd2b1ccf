package style

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"tone_server/core/domain"
	"tone_server/core/port/out"
	"tone_server/pkg/logger"
)

// ErrLLMUnavailable wraps failures of the language model call.
var ErrLLMUnavailable = errors.New("llm unavailable")

const (
	defaultClusterName        = "Default Style"
	defaultClusterDescription = "User's default writing style based on analyzed emails"
	unknownCluster            = "Unknown"
	noSubject                 = "No Subject"
)

const systemPrompt = "You are an expert email assistant. " +
	"Given a user's global style profile plus a set of scenario-specific style clusters, " +
	"you will: 1) choose the cluster whose profile best matches the current email context " +
	"(based on subject, recipients, and conversation tone), " +
	"2) rewrite the user's draft to match that cluster's register, " +
	"3) preserve the user's intent and key details."

const finalInstruction = "Step 1: Based on the email context above (subject and recipients), " +
	"pick **one** of the style clusters by name. Use the context to make the best choice.\n" +
	"Step 2: Rewrite the draft email to match that cluster's tone, register, " +
	"and stylistic preferences. Preserve all necessary details.\n" +
	"Step 3: Output a JSON object with three keys:\n" +
	"  • \"subject\": the new subject line (string)\n" +
	"  • \"email\": the full revised email body (string)\n" +
	"  • \"cluster\": the name of the cluster you selected (string)\n" +
	"No extra commentary."

// Improver rewrites drafts in the user's style with an LLM and validates the result.
type Improver struct {
	llm       out.LLMClient
	validator *Validator
	th        domain.Thresholds
	log       *logger.Logger
}

func NewImprover(llm out.LLMClient, validator *Validator, th domain.Thresholds, log *logger.Logger) *Improver {
	if log == nil {
		log = logger.Default()
	}
	return &Improver{llm: llm, validator: validator, th: th, log: log}
}

// Improve asks the LLM for a rewrite, validates it against the profile and, when
// the match falls below the threshold, retries once with revision instructions.
// The better scoring attempt is returned.
func (i *Improver) Improve(ctx context.Context, profile domain.UserProfile, draft domain.DraftRequest) (*domain.ImprovedDraft, error) {
	messages, err := BuildMessages(profile, draft, "")
	if err != nil {
		return nil, err
	}

	best, err := i.attempt(ctx, profile, draft, messages)
	if err != nil {
		return nil, err
	}
	best.Attempts = 1

	feedback, needsRevision := i.validator.instructionsFor(best.Validation)
	if !needsRevision {
		return best, nil
	}

	i.log.Debug("[Improver.Improve] match %.2f below %.2f, retrying with feedback",
		best.Validation.OverallMatch, i.th.StyleMatchThreshold)

	messages, err = BuildMessages(profile, draft, feedback)
	if err != nil {
		return nil, err
	}
	retry, err := i.attempt(ctx, profile, draft, messages)
	if err != nil {
		i.log.Warn("[Improver.Improve] retry failed, keeping first attempt: %v", err)
		return best, nil
	}
	retry.Attempts = 2
	if retry.Validation.OverallMatch >= best.Validation.OverallMatch {
		return retry, nil
	}
	best.Attempts = 2
	return best, nil
}

func (i *Improver) attempt(ctx context.Context, profile domain.UserProfile, draft domain.DraftRequest, messages []out.ChatMessage) (*domain.ImprovedDraft, error) {
	reply, err := i.llm.CompleteChat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}

	result := ParseReply(reply, draft)
	result.Validation = i.validator.Validate(profile, result.Email)
	return result, nil
}

// BuildMessages renders the chat conversation for one rewrite. A non-empty
// feedback is appended as additional style guidance.
func BuildMessages(profile domain.UserProfile, draft domain.DraftRequest, feedback string) ([]out.ChatMessage, error) {
	mainJSON, err := json.MarshalIndent(profile.MainProfile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	draftContext := fmt.Sprintf("**Context** (email to be written):\nSubject: %s\nOriginal draft: %s\nRecipients: To=%s, CC=%s\n----\n**User's Global Style Profile:**\n%s",
		draft.Subject, draft.Content, strings.Join(draft.To, ", "), strings.Join(draft.CC, ", "), mainJSON)

	var clusters strings.Builder
	clusters.WriteString("**Available Style Clusters:**\n")
	if len(profile.StyleClusters) == 0 {
		fmt.Fprintf(&clusters, "- **%s**: %s", defaultClusterName, defaultClusterDescription)
	}
	for idx, c := range profile.StyleClusters {
		if idx > 0 {
			clusters.WriteString("\n\n")
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("Cluster %d", idx)
		}
		fmt.Fprintf(&clusters, "- **%s**: %s", name, c.Description)
	}

	instruction := finalInstruction
	if feedback != "" {
		instruction += "\n\nAdditional style guidance:\n" + feedback
	}

	return []out.ChatMessage{
		{Role: out.RoleSystem, Content: systemPrompt},
		{Role: out.RoleUser, Content: draftContext},
		{Role: out.RoleUser, Content: clusters.String()},
		{Role: out.RoleUser, Content: instruction},
	}, nil
}

type llmReply struct {
	Subject *string `json:"subject"`
	Email   *string `json:"email"`
	Cluster string  `json:"cluster"`
}

// ParseReply pulls the outermost JSON object out of an LLM reply. When no
// object can be decoded the whole reply becomes the email body.
func ParseReply(reply string, draft domain.DraftRequest) *domain.ImprovedDraft {
	subject := draft.Subject
	if subject == "" {
		subject = noSubject
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return &domain.ImprovedDraft{Subject: subject, Email: reply, Cluster: unknownCluster,
			ParsingError: "No JSON found in response"}
	}

	var parsed llmReply
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return &domain.ImprovedDraft{Subject: subject, Email: reply, Cluster: unknownCluster,
			ParsingError: "Could not parse JSON from response"}
	}

	result := &domain.ImprovedDraft{Subject: subject, Email: draft.Content, Cluster: parsed.Cluster}
	if parsed.Subject != nil {
		result.Subject = *parsed.Subject
	}
	if parsed.Email != nil {
		result.Email = *parsed.Email
	}
	if result.Cluster == "" {
		result.Cluster = unknownCluster
	}
	return result
}
