package usecase

import (
	"fmt"
	"strings"
)

// Intent is the routing decision for one user turn.
type Intent int

const (
	IntentRetrieval Intent = iota
	IntentSmallTalk
)

func (i Intent) String() string {
	switch i {
	case IntentRetrieval:
		return "retrieval"
	case IntentSmallTalk:
		return "small_talk"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

var travelKeywords = []string{
	"visa", "passport", "immigration", "travel", "visit", "trip",
	"law", "legal", "regulation", "rule", "prohibited", "allowed",
	"culture", "custom", "etiquette", "tradition", "behavior",
	"safe", "danger", "crime", "emergency", "health",
	"flight", "hotel", "transport", "accommodation", "currency",
	"food", "restaurant", "eat", "drink", "cuisine",
}

var smallTalkReplies = map[string]string{
	"hi":        "Hello! I'm your travel assistant. How can I help you with your travel plans?",
	"hello":     "Hello! I'm here to help with travel information. What would you like to know?",
	"hey":       "Hey there! Ask me anything about visa requirements, local laws, cultural tips, or travel safety.",
	"help":      "I can help you with:\n- Visa requirements and immigration\n- Local laws and regulations\n- Cultural etiquette and customs\n- Safety guidelines\n- Travel tips and recommendations\n\nWhat would you like to know?",
	"thanks":    "You're welcome! Safe travels!",
	"thank you": "You're welcome! Feel free to ask if you have more questions.",
	"bye":       "Goodbye! Have a great trip!",
}

const defaultSmallTalkReply = "I'm a travel assistant specialized in visa requirements, local laws, cultural etiquette, and safety information. How can I help you with your travel plans?"

// IntentRouter sends travel questions to retrieval and everything else to
// canned small-talk replies.
type IntentRouter struct {
	keywords []string
}

func NewIntentRouter() *IntentRouter {
	return &IntentRouter{keywords: travelKeywords}
}

// Classify matches travel keywords as case-insensitive substrings.
func (r *IntentRouter) Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return IntentRetrieval
		}
	}
	return IntentSmallTalk
}

// SmallTalkReply returns the canned reply for a greeting or the generic
// capability description.
func (r *IntentRouter) SmallTalkReply(text string) string {
	if reply, ok := smallTalkReplies[strings.ToLower(strings.TrimSpace(text))]; ok {
		return reply
	}
	return defaultSmallTalkReply
}
