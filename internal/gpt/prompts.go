package gpt

// Prompts live here so personality changes are a single-file edit.
// Keep them concise; every token costs money and latency.

// Completion parameters per operation.
const (
	classifyTemperature = 0.1
	classifyMaxTokens   = 20

	answerTemperature = 0.7
	answerMaxTokens   = 60

	generateTemperature = 0.7
	generateMaxTokens   = 800
)

// PromptAnswerSystem frames every context-aware answer.
const PromptAnswerSystem = `You are an intelligent cooking assistant with context awareness. Provide smart, practical cooking advice.`

// PromptClassify asks for exactly one intent label. It is formatted with
// the utterance, the 1-based step number, the step count and the recipe
// name.
//
// The CLARIFICATION rule matters: a question about the current step
// classified as NAVIGATION skips the step the user wanted explained.
const PromptClassify = `Classify this cooking assistant user input:
Input: %q
Context: Step %d of %d - %s
Current step: %s

Classify as ONE intent:
- NAVIGATION: "next", "continue", "move on", "skip" (explicit commands to advance)
- CLARIFICATION: "what", "how", "why", "explain", "tell me about", "current step" (questions about current step)
- TIMING: "how long", "when ready", "is it done", "time"
- SUBSTITUTION: "replace ingredient", "alternative", "substitute"
- TECHNIQUE: "how to cook", "method", "technique"
- TROUBLESHOOTING: "help", "stuck", "problem", "wrong", "issue"
- REPEAT: "say again", "repeat", "one more time"
- INGREDIENTS: "list ingredients", "what ingredients", "ingredients"
- STOP: "quit", "end", "stop", "exit"
- QUESTION: other cooking questions

IMPORTANT: Questions ABOUT the current step should be CLARIFICATION, not NAVIGATION.
Only classify as NAVIGATION if explicitly asking to move forward.

Respond with just the intent name.`

// PromptAnswerRequirements closes the rendered context snapshot.
const PromptAnswerRequirements = `RESPONSE REQUIREMENTS:
- Reference specific step numbers and ingredients, never generic advice
- Match the detail to the user's skill level, pace and confusion level
- Anticipate problems in the next steps when relevant
- Never use markdown; the answer is spoken aloud
- Keep the answer practical and under 60 words

Answer:`

// PromptGenerateSystem frames recipe generation.
const PromptGenerateSystem = `You are a professional chef who writes clear, reliable home recipes.`
