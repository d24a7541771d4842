package usecase

import (
	"fmt"
	"strings"

	"travel-rag/internal/domain"
)

// TravelAssistantPrompt is the default system prompt.
const TravelAssistantPrompt = `You are an expert travel assistant with deep knowledge of:
- Visa requirements and immigration policies worldwide
- Local laws, customs, and regulations
- Cultural etiquette and social norms
- Safety guidelines and travel advisories
- Currency, transportation, and accommodation
- Health and insurance requirements
- Language tips and communication
- Food, dining customs, and restrictions
- Emergency contacts and procedures

Your role is to:
1. Provide accurate, up-to-date travel information based on the context provided
2. Be helpful, friendly, and culturally sensitive
3. Cite specific sources when providing information
4. Warn travelers about important legal or safety considerations
5. Offer practical, actionable advice
6. Ask clarifying questions when the query is ambiguous

Always base your answers on the provided context. If the context doesn't contain relevant information, acknowledge this and provide general guidance while noting that specific details should be verified.`

// NoContextText replaces the context block when retrieval found nothing.
const NoContextText = "No specific context available."

var promptInstructions = []string{
	"- Answer the question based on the context provided above",
	"- Cite specific sources when referencing information",
	"- Be accurate, helpful, and concise",
	"- If the context doesn't contain the answer, say so clearly",
}

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	SystemPrompt string
	Context      string
	Query        string
	History      []domain.ChatTurn
}

// PromptBuilder renders the single text prompt sent to the LLM.
type PromptBuilder interface {
	Build(input PromptInput) (string, error)
}

// TravelPromptBuilder lays out system prompt, history, context, question and
// instructions as markdown sections.
type TravelPromptBuilder struct {
	historyTurns int
}

// NewTravelPromptBuilder keeps at most historyTurns prior turns.
func NewTravelPromptBuilder(historyTurns int) *TravelPromptBuilder {
	return &TravelPromptBuilder{historyTurns: historyTurns}
}

// Build renders the prompt.
func (b *TravelPromptBuilder) Build(input PromptInput) (string, error) {
	if strings.TrimSpace(input.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	system := input.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = TravelAssistantPrompt
	}
	contextBlock := input.Context
	if strings.TrimSpace(contextBlock) == "" {
		contextBlock = NoContextText
	}

	parts := []string{"System: " + system + "\n"}

	if history := domain.TrimHistory(input.History, b.historyTurns); len(history) > 0 {
		parts = append(parts, "\n# Previous Conversation:")
		for _, turn := range history {
			parts = append(parts, roleLabel(turn.Role)+": "+turn.Content)
		}
		parts = append(parts, "")
	}

	parts = append(parts, contextBlock)
	parts = append(parts, "\n# User Question:\n"+input.Query)
	parts = append(parts, "\n# Instructions:")
	parts = append(parts, promptInstructions...)

	return strings.Join(parts, "\n"), nil
}

func roleLabel(r domain.Role) string {
	switch r {
	case domain.RoleAssistant:
		return "Assistant"
	case domain.RoleUser:
		return "User"
	default:
		return "User"
	}
}

// FormatContext renders search results as the markdown context block.
func FormatContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return NoContextText
	}

	parts := []string{"# Relevant Travel Information\n"}
	for i, res := range results {
		doc := res.Document
		parts = append(parts, fmt.Sprintf("\n## Source %d: %s", i+1, doc.Title))

		var meta []string
		if doc.Country != "" {
			meta = append(meta, "Country: "+doc.Country)
		}
		meta = append(meta, "Category: "+doc.Category.String())
		if doc.LastUpdated != "" {
			meta = append(meta, "Last Updated: "+doc.LastUpdated)
		}
		parts = append(parts, "*"+strings.Join(meta, " | ")+"*")

		parts = append(parts, "\n"+doc.Body+"\n")
		parts = append(parts, fmt.Sprintf("*Relevance Score: %.3f*\n", res.Score))
	}
	return strings.Join(parts, "\n")
}

var _ PromptBuilder = (*TravelPromptBuilder)(nil)
