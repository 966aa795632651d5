package planner

import (
	"strings"

	"irabuilder/pkg/proto"
)

// Marker strings that identify a reply as a finished workflow plan. The
// planner's prompt mandates these section headings, so their presence is a
// strong signal.
var planMarkers = []string{
	"# business logic plan",
	"## **workflow purpose**",
	"## **required files**",
	"## **requirements**",
	"## **business logic**",
	"## **output dataframe structure**",
	"### workflow plan:",
	"**objective:**",
	"**steps:**",
}

// Short replies containing these phrases are acknowledgments, not questions.
var acknowledgmentPhrases = []string{
	"i've analyzed",
	"i've reviewed",
	"thank you for",
	"understood",
	"i'll proceed",
	"let me now",
	"moving forward",
	"if you need",
	"feel free",
	"good luck",
}

// Classify determines whether a planner reply is a finished plan, a
// clarifying question, or a plain acknowledgment. Plan markers win over
// everything else; option lists and question marks indicate questions.
func Classify(content string) proto.ReplyType {
	lower := strings.ToLower(content)

	for _, marker := range planMarkers {
		if strings.Contains(lower, marker) {
			return proto.ReplyPlanReady
		}
	}

	// Plan-shaped replies without the exact headings still count.
	if strings.Contains(lower, "workflow") && (strings.Contains(lower, "objective") || strings.Contains(lower, "steps:")) {
		return proto.ReplyPlanReady
	}
	if strings.Contains(lower, "load data") && strings.Contains(lower, "output") && len(content) > 500 {
		return proto.ReplyPlanReady
	}

	// Multiple-choice question format.
	if strings.Contains(lower, "please select one option:") || strings.Contains(lower, "please select:") {
		if strings.Contains(lower, "\na)") || strings.Contains(lower, "\nb)") {
			return proto.ReplyQuestion
		}
	}

	if isAcknowledgment(content, lower) {
		return proto.ReplyClarification
	}

	if strings.Contains(content, "?") {
		return proto.ReplyQuestion
	}
	return proto.ReplyClarification
}

func isAcknowledgment(content, lower string) bool {
	if len(strings.Fields(content)) >= 150 {
		return false
	}
	for _, phrase := range acknowledgmentPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
