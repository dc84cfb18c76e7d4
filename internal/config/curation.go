package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one content bucket of an edition.
type Category struct {
	Name              string   `yaml:"name"`
	Label             string   `yaml:"label"`
	Query             string   `yaml:"query"`
	MaxResults        int      `yaml:"max_results"`
	Keywords          []string `yaml:"keywords"`
	MinKeywordMatches int      `yaml:"min_keyword_matches"`
	ImageKeyword      string   `yaml:"image_keyword"`
}

type Quality struct {
	MinWords      int      `yaml:"min_words"`
	SpamPhrases   []string `yaml:"spam_phrases"`
	SpamThreshold int      `yaml:"spam_threshold"`
}

type ToolEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
}

type Tools struct {
	Query          string      `yaml:"query"`
	MaxResults     int         `yaml:"max_results"`
	Known          []string    `yaml:"known"`
	Fallback       []ToolEntry `yaml:"fallback"`
	Cap            int         `yaml:"cap"`
	Min            int         `yaml:"min"`
	DescriptionMax int         `yaml:"description_max"`
}

// Curation is the editorial policy: categories, quality gates and tools.
type Curation struct {
	Categories          []Category `yaml:"categories"`
	Quality             Quality    `yaml:"quality"`
	Tools               Tools      `yaml:"tools"`
	Feeds               []string   `yaml:"feeds"`
	DefaultImageKeyword string     `yaml:"default_image_keyword"`
	FallbackSource      string     `yaml:"fallback_source"`
}

// LoadCuration reads the YAML policy file on top of DefaultCuration.
// A missing file yields the defaults.
func LoadCuration(path string) (Curation, error) {
	cur := DefaultCuration()
	if path == "" {
		return cur, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cur, nil
		}
		return cur, fmt.Errorf("open curation config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cur); err != nil {
		return cur, fmt.Errorf("decode curation config %s: %w", path, err)
	}
	cur.applyDefaults()
	return cur, nil
}

func (c *Curation) applyDefaults() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		cat.Name = strings.ToLower(strings.TrimSpace(cat.Name))
		if cat.MaxResults <= 0 {
			cat.MaxResults = 5
		}
		if cat.MinKeywordMatches <= 0 {
			cat.MinKeywordMatches = 2
		}
		if cat.Label == "" && cat.Name != "" {
			cat.Label = strings.ToUpper(cat.Name[:1]) + cat.Name[1:]
		}
	}
	if c.Quality.MinWords <= 0 {
		c.Quality.MinWords = 20
	}
	if c.Quality.SpamThreshold <= 0 {
		c.Quality.SpamThreshold = 2
	}
	if c.Tools.Cap <= 0 {
		c.Tools.Cap = 4
	}
	if c.Tools.Min <= 0 {
		c.Tools.Min = 2
	}
	if c.Tools.DescriptionMax <= 0 {
		c.Tools.DescriptionMax = 150
	}
	if c.Tools.MaxResults <= 0 {
		c.Tools.MaxResults = 5
	}
	if c.DefaultImageKeyword == "" {
		c.DefaultImageKeyword = "technology"
	}
	if c.FallbackSource == "" {
		c.FallbackSource = "GENAI NEWS"
	}
}

func (c Curation) Validate() error {
	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: category at index %d has no name", ErrNoCategories, i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, cat.Name)
		}
		seen[cat.Name] = true
		if cat.Query == "" {
			return fmt.Errorf("category %q: query is required", cat.Name)
		}
	}
	return nil
}

// CategoryNames returns category names in configured order.
func (c Curation) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

func DefaultCuration() Curation {
	return Curation{
		Categories: []Category{
			{
				Name:  "development",
				Label: "Latest Developments",
				Query: "latest generative AI breakthroughs LLM GPT-4 Claude Gemini multimodal models " +
					"AI agents autonomous systems RAG vector databases announcements releases",
				MaxResults: 5,
				Keywords: []string{
					"gpt", "llm", "large language model", "generative ai", "genai",
					"claude", "gemini", "agent", "autonomous", "multimodal",
					"rag", "vector", "embedding", "chatbot", "ai assistant",
				},
				MinKeywordMatches: 2,
				ImageKeyword:      "artificial+intelligence+neural+network",
			},
			{
				Name:  "training",
				Label: "Training & Courses",
				Query: "youtube.com advanced large language model training LLM fine-tuning " +
					"AI agent development reinforcement learning from human feedback RLHF " +
					"transformer architecture tutorial deep learning course",
				MaxResults: 5,
				Keywords: []string{
					"tutorial", "course", "learn", "training", "guide",
					"llm", "transformer", "fine-tuning", "rlhf", "prompt engineering",
					"langchain", "agent", "deep learning", "neural network",
				},
				MinKeywordMatches: 2,
				ImageKeyword:      "machine+learning+programming",
			},
			{
				Name:  "research",
				Label: "Research Papers",
				Query: "arxiv.org latest research papers large language models LLM transformers " +
					"multi-agent systems chain-of-thought reasoning prompt engineering " +
					"neural networks deep learning",
				MaxResults: 5,
				Keywords: []string{
					"arxiv", "paper", "research", "study", "neural", "transformer",
					"attention mechanism", "llm", "language model", "benchmark",
					"deep learning", "reasoning", "agent", "multi-agent",
				},
				MinKeywordMatches: 2,
				ImageKeyword:      "data+science+technology",
			},
			{
				Name:  "startup",
				Label: "Startups & Tools",
				Query: "new generative AI startups LLM API platforms AI agent frameworks " +
					"vector databases AutoGPT LangChain OpenAI alternatives",
				MaxResults: 5,
				Keywords: []string{
					"startup", "founded", "launch", "platform", "api", "tool",
					"llm", "genai", "agent", "vector database", "ai platform",
					"openai", "anthropic", "cohere", "framework",
				},
				MinKeywordMatches: 2,
				ImageKeyword:      "innovation+technology+startup",
			},
		},
		Quality: Quality{
			MinWords: 20,
			SpamPhrases: []string{
				"buy now", "limited time offer", "click here", "promo code",
				"discount code", "sponsored", "subscribe now", "free trial",
				"affiliate link", "act now",
			},
			SpamThreshold: 2,
		},
		Tools: Tools{
			Query: "trending generative AI tools LLM platforms agent frameworks " +
				"LangChain AutoGPT vector databases Pinecone Weaviate Chroma OpenAI API alternatives",
			MaxResults: 5,
			Known: []string{
				"LangChain", "LlamaIndex", "AutoGPT", "CrewAI", "AutoGen",
				"Pinecone", "Weaviate", "Chroma", "Qdrant", "Milvus",
				"Hugging Face", "Ollama", "vLLM", "Haystack", "Semantic Kernel",
				"DSPy", "Cohere", "Mistral", "Perplexity", "Cursor",
			},
			Fallback: []ToolEntry{
				{
					Name:        "LangChain",
					Description: "Framework for building LLM applications with chains, agents and retrieval.",
					Link:        "https://www.langchain.com",
				},
				{
					Name:        "LlamaIndex",
					Description: "Data framework that connects LLMs to private data for RAG pipelines.",
					Link:        "https://www.llamaindex.ai",
				},
				{
					Name:        "Pinecone",
					Description: "Managed vector database for low-latency similarity search at scale.",
					Link:        "https://www.pinecone.io",
				},
				{
					Name:        "Hugging Face",
					Description: "Hub for open models and datasets, home of the Transformers library.",
					Link:        "https://huggingface.co",
				},
			},
			Cap:            4,
			Min:            2,
			DescriptionMax: 150,
		},
		DefaultImageKeyword: "technology",
		FallbackSource:      "GENAI NEWS",
	}
}
