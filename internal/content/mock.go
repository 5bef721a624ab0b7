// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package content

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/research-hub/pkg/types"
)

// Mock simulates the backend with fixed latencies and canned responses.
type Mock struct {
	ExtractDelay time.Duration
	SummaryDelay time.Duration
	SearchDelay  time.Duration
	AskDelay     time.Duration
}

// NewMock returns a Mock with the given latencies.
func NewMock(extractDelay, summaryDelay time.Duration) *Mock {
	return &Mock{ExtractDelay: extractDelay, SummaryDelay: summaryDelay}
}

// Search returns the canned catalogue restricted to filter, whatever the query.
func (m *Mock) Search(ctx context.Context, query string, filter types.SourceFilter) ([]types.PaperResult, error) {
	if err := sleep(ctx, m.SearchDelay); err != nil {
		return nil, err
	}
	var out []types.PaperResult
	for _, p := range mockCatalogue {
		if filter == types.SourceAll || filter == "" || types.SourceFilter(p.Source) == filter {
			p.Authors = append([]string(nil), p.Authors...)
			p.Tags = append([]string(nil), p.Tags...)
			out = append(out, p)
		}
	}
	return out, nil
}

// ExtractText returns a canned passage naming the file.
func (m *Mock) ExtractText(ctx context.Context, file types.File) (string, error) {
	if err := sleep(ctx, m.ExtractDelay); err != nil {
		return "", err
	}
	return fmt.Sprintf("Extracted text from %q:\n\n%s", file.Name, mockExtraction), nil
}

// Summarize returns a canned markdown summary.
func (m *Mock) Summarize(ctx context.Context, text string) (string, error) {
	if err := sleep(ctx, m.SummaryDelay); err != nil {
		return "", err
	}
	return mockSummary, nil
}

// Ask returns a canned answer that quotes the question.
func (m *Mock) Ask(ctx context.Context, question string) (string, error) {
	question, err := trimQuestion(question)
	if err != nil {
		return "", err
	}
	if err := sleep(ctx, m.AskDelay); err != nil {
		return "", err
	}
	return fmt.Sprintf(mockAnswer, question), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const mockExtraction = `AI agents are autonomous systems designed to perceive, reason, and act within dynamic environments. With the rapid advancements in generative AI (GenAI), large language models (LLMs) and multimodal large language models (MLLMs) have significantly improved AI agents' capabilities in semantic comprehension, complex reasoning, and autonomous decision-making.

At the same time, the rise of Agentic AI highlights adaptability and goal-directed autonomy in dynamic and complex environments. LLMs-based AI Agents (LLM-Agents) represent a paradigm shift in how AI systems operate, moving from passive responders to active participants that can plan, execute, and iterate on complex tasks.

This paper navigates the rich conceptual landscape of AI agents and Agentic AI, providing clarity on terminology, architectural patterns, and future directions for manufacturing applications.`

const mockAnswer = `On %q: recent work on LLM-based agents separates single agents, which plan and call tools in a loop (ReAct, Toolformer), from agentic systems where several agents coordinate toward a shared goal. Surveys such as "AI Agents vs. Agentic AI" compare both on autonomy, memory and orchestration, and report that multi-agent setups help most on long-horizon tasks such as job-shop scheduling.`

const mockSummary = `**AI Summary**

This paper provides a comprehensive taxonomy of AI agent concepts and their applications in future manufacturing environments.

**Key Findings:**
• AI agents leverage LLMs for complex reasoning and decision-making
• Agentic AI represents a shift toward goal-directed, autonomous operation
• Manufacturing applications benefit from multi-agent coordination
• Reliability and safety remain core challenges for deployment

**Methodology:** Systematic literature review covering 150+ papers on AI agents, Agentic AI, and LLM-based autonomous systems published between 2020–2025.

**Conclusion:** The convergence of generative AI and autonomous agent architectures presents significant opportunities for intelligent manufacturing, requiring careful attention to human-AI collaboration and safety constraints.`

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

var mockCatalogue = []types.PaperResult{
	{
		Identifier:             "2505.10468",
		Title:                  "AI Agents vs. Agentic AI: A Conceptual Taxonomy, Applications and Challenges",
		Authors:                []string{"Ranjan Sapkota", "Konstantinos I. Roumeliotis", "Manoj Karkee"},
		Abstract:               "This review critically distinguishes between AI Agents and Agentic AI, offering a structured conceptual taxonomy, application mapping, and challenge analysis.",
		Date:                   day(2025, time.May, 15),
		Source:                 string(types.SourceArxiv),
		Tags:                   []string{"cs.AI", "cs.MA"},
		Citations:              types.Citations{},
		PreferredAcquisitionID: "2505.10468",
	},
	{
		Identifier:             "10.1038/s42256-024-00832-8",
		Title:                  "Large Language Model Agents for Manufacturing Systems",
		Authors:                []string{"Li Wei", "Maria Gonzalez"},
		Abstract:               "We survey how LLM-based agents coordinate planning, scheduling and quality control on the shop floor.",
		Date:                   day(2024, time.June, 3),
		Source:                 string(types.SourceSemanticScholar),
		Tags:                   []string{"Computer Science", "Engineering"},
		Citations:              types.KnownCitations(87),
		PreferredAcquisitionID: "10.1038/s42256-024-00832-8",
	},
	{
		Identifier:             "10.1016/j.jbi.2024.104620",
		Title:                  "Autonomous Agents in Clinical Decision Support: A Scoping Review",
		Authors:                []string{"Sarah Okafor", "James Lindqvist", "Priya Raman"},
		Abstract:               "A scoping review of autonomous AI agents deployed for clinical decision support, with attention to safety and oversight.",
		Date:                   day(2024, time.March, 21),
		Source:                 string(types.SourcePubMed),
		Tags:                   []string{"Review", "Journal Article"},
		Citations:              types.Citations{},
		PreferredAcquisitionID: "10.1016/j.jbi.2024.104620",
	},
	{
		Identifier:             "10.1109/TII.2023.3341209",
		Title:                  "Multi-Agent Reinforcement Learning for Flexible Job-Shop Scheduling",
		Authors:                []string{"Chen Hao", "Tomasz Nowak"},
		Abstract:               "A multi-agent reinforcement learning framework that schedules flexible job shops under machine breakdowns.",
		Date:                   day(2023, time.December, 11),
		Source:                 string(types.SourceIEEE),
		Tags:                   []string{"Job shop scheduling", "Multi-agent systems", "Reinforcement learning"},
		Citations:              types.KnownCitations(42),
		PreferredAcquisitionID: "10.1109/TII.2023.3341209",
	},
	{
		Identifier:             "2308.11432",
		Title:                  "A Survey on Large Language Model based Autonomous Agents",
		Authors:                []string{"Lei Wang", "Chen Ma", "Xueyang Feng"},
		Abstract:               "We present a comprehensive survey of LLM-based autonomous agents covering construction, application and evaluation.",
		Date:                   day(2023, time.August, 22),
		Source:                 string(types.SourceArxiv),
		Tags:                   []string{"cs.AI", "cs.CL"},
		Citations:              types.Citations{},
		PreferredAcquisitionID: "2308.11432",
	},
}
