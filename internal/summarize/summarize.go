// Package summarize turns article text into short structured HTML
// summaries using a hosted or local language model.
package summarize

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptySummary = errors.New("model returned an empty summary")
	ErrRateLimited  = errors.New("summary request budget exhausted")
)

type Summarizer interface {
	Summarize(ctx context.Context, text, category string) (string, error)
}

const (
	Temperature = 0.7

	SystemPrompt = "You are an expert in Generative AI, Large Language Models, AI Agents, and Deep Learning. " +
		"Write STRUCTURED summaries with HTML formatting (use <strong> for bold, <ul><li> for bullet points, <p> for paragraphs). " +
		"Use proper terminology (transformers, embeddings, RAG, fine-tuning, RLHF, chain-of-thought). " +
		"Follow the exact HTML format requested with proper tags. " +
		"Do NOT add any meta-commentary like 'here is' or 'summary:'. Return ONLY valid HTML."

	maxInputRunes = 6000
	fallbackRunes = 180
)

type Prompt struct {
	Instruction string
	MaxTokens   int
}

var prompts = map[string]Prompt{
	"development": {
		MaxTokens: 350,
		Instruction: "You are a GenAI & LLM expert newsletter writer. Create a STRUCTURED summary with this exact HTML format:\n\n" +
			"<p><strong>🚀 What's New</strong><br>\n" +
			"Write 1-2 sentences about the breakthrough/announcement.</p>\n\n" +
			"<p><strong>💡 Key Highlights</strong></p>\n" +
			"<ul>\n<li>First major feature or innovation</li>\n<li>Second major feature or innovation</li>\n<li>Third major feature or innovation</li>\n</ul>\n\n" +
			"<p><strong>🎯 Why It Matters</strong><br>\n" +
			"Write 1-2 sentences about real-world impact and significance for AI developers.</p>\n\n" +
			"Use technical terms like 'transformer', 'RAG', 'multimodal', 'fine-tuning', 'agent' when relevant. " +
			"Return ONLY the HTML formatted summary without any meta-commentary:\n\n",
	},
	"training": {
		MaxTokens: 320,
		Instruction: "Summarize this LLM/GenAI training resource with this STRUCTURED HTML format:\n\n" +
			"<p><strong>📚 What You'll Learn</strong><br>\n" +
			"Write 1-2 sentences about the main topics (LLM training, fine-tuning, agents, etc.).</p>\n\n" +
			"<p><strong>🎓 Key Topics</strong></p>\n" +
			"<ul>\n<li>First major topic covered</li>\n<li>Second major topic covered</li>\n<li>Third major topic covered</li>\n</ul>\n\n" +
			"<p><strong>👥 Best For</strong><br>\n" +
			"Write 1 sentence about target audience (developers/researchers/students) and skill level.</p>\n\n" +
			"Return ONLY the HTML formatted summary:\n\n",
	},
	"research": {
		MaxTokens: 350,
		Instruction: "Summarize this LLM/GenAI research paper with this STRUCTURED HTML format:\n\n" +
			"<p><strong>🔬 Research Focus</strong><br>\n" +
			"Write 1-2 sentences about the research question (transformers, reasoning, agents, etc.).</p>\n\n" +
			"<p><strong>⚙️ Key Contributions</strong></p>\n" +
			"<ul>\n<li>Novel methodology or architecture</li>\n<li>Main experimental findings</li>\n<li>Performance benchmarks or improvements</li>\n</ul>\n\n" +
			"<p><strong>📊 Impact</strong><br>\n" +
			"Write 1-2 sentences about significance for the AI/ML field.</p>\n\n" +
			"Use technical language. Return ONLY the HTML formatted summary:\n\n",
	},
	"startup": {
		MaxTokens: 320,
		Instruction: "Summarize this GenAI/LLM startup or tool with this STRUCTURED HTML format:\n\n" +
			"<p><strong>🏢 What They Built</strong><br>\n" +
			"Write 1-2 sentences about their product (LLM platform, agent framework, vector DB, etc.).</p>\n\n" +
			"<p><strong>✨ Key Features</strong></p>\n" +
			"<ul>\n<li>First major feature or capability</li>\n<li>Second major feature or capability</li>\n<li>Third major feature or capability</li>\n</ul>\n\n" +
			"<p><strong>💼 Use Cases</strong><br>\n" +
			"Write 1 sentence about primary applications and target market.</p>\n\n" +
			"Return ONLY the HTML formatted summary:\n\n",
	},
	"tool": {
		MaxTokens: 120,
		Instruction: "Describe this GenAI/LLM tool in exactly 2-3 sentences. " +
			"Explain: (1) What it does (LangChain, vector DB, agent framework, etc.), " +
			"(2) Key features for LLM developers, (3) Primary use case. " +
			"Be concise and technical. Return as a single paragraph:\n\n",
	},
	"featured": {
		MaxTokens: 320,
		Instruction: "You are a GenAI expert. Summarize this AI breakthrough with this STRUCTURED HTML format:\n\n" +
			"<p><strong>🚀 What Happened</strong><br>\n" +
			"Write 1-2 sentences about the breakthrough.</p>\n\n" +
			"<p><strong>💡 Key Details</strong></p>\n" +
			"<ul>\n<li>First major point</li>\n<li>Second major point</li>\n<li>Third major point</li>\n</ul>\n\n" +
			"<p><strong>🎯 Impact</strong><br>\n" +
			"Write 1-2 sentences about significance for the AI field.</p>\n\n" +
			"Return ONLY the HTML formatted summary:\n\n",
	},
}

// PromptFor returns the prompt of category, falling back to development.
func PromptFor(category string) Prompt {
	if p, ok := prompts[category]; ok {
		return p
	}
	return prompts["development"]
}

// userPrompt builds the user message, capping very long input on a
// sentence boundary when one is close enough.
func userPrompt(text, category string) (string, Prompt) {
	p := PromptFor(category)

	text = strings.Join(strings.Fields(strings.ReplaceAll(text, "\r", "")), " ")
	if utf8.RuneCountInString(text) > maxInputRunes {
		trimmed := string([]rune(text)[:maxInputRunes])
		if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
			trimmed = trimmed[:idx+1]
		}
		text = trimmed
	}
	return p.Instruction + text, p
}

// Fallback is the summary used when no model output is available.
func Fallback(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) > fallbackRunes {
		content = string([]rune(content)[:fallbackRunes])
	}
	return "<p>" + content + "...</p>"
}
