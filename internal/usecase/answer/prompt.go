package answer

import "fmt"

// SystemPrompt precedes every request.
const SystemPrompt = `You are a helpful assistant that reads documents and explains them clearly.

Goals:
- Understand what the document means, not only what it says.
- Summarize key ideas and context in your own words instead of copying passages.

Formatting:
- Use short section headers such as Overview, Key Points, Insights and Limitations.
- Use bullet points where they help scanning.
- Put important terms in bold.

Style:
- Be concise yet complete and keep a neutral, factual tone.
- When the material contains data or findings, interpret them briefly rather than repeating numbers.`

const groundedTemplate = `Answer the user's question using ONLY the document excerpts below.
- If the excerpts contain enough information, answer concisely in natural language. Summarize and rephrase, do not copy verbatim.
- If they do not, say "I don't have enough information in the documents" and then optionally add a brief answer prefixed with "General knowledge:".

Document excerpts (most relevant first):
%s

Question:
%s

Answer:`

const generalTemplate = `No relevant documents were found. Answer the user's question from your general knowledge.

Question: %s

Answer:`

const retryTemplate = "Provide a short answer to: %s"

// GroundedPrompt instructs the model to answer from context only.
func GroundedPrompt(question, context string) string {
	return fmt.Sprintf(groundedTemplate, context, question)
}

// GeneralPrompt is used when no context is available.
func GeneralPrompt(question string) string {
	return fmt.Sprintf(generalTemplate, question)
}

// RetryPrompt is the short unconstrained prompt after an empty grounded answer.
func RetryPrompt(question string) string {
	return fmt.Sprintf(retryTemplate, question)
}
