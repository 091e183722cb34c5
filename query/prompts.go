package query

import "fmt"

// The prompt pair implements a compact refine flow: the best chunk answers
// first, every further chunk gets a chance to correct or extend the answer.

const qaPromptTemplate = `Context from your documents (may contain tables):
---------------------
%s
---------------------
Using ONLY the context above, answer the question below.
If calculation is needed, show every step.
You MUST provide a final numerical answer or clear statement.
Question: %s
Answer:`

const refinePromptTemplate = `We already have this answer: %s
New context (may contain tables):
---------------------
%s
---------------------
If the new context adds useful data, refine or correct the answer.
Always end with a clear final answer.
Question: %s
Refined Answer:`

func qaPrompt(contextStr, question string) string {
	return fmt.Sprintf(qaPromptTemplate, contextStr, question)
}

func refinePrompt(existingAnswer, contextStr, question string) string {
	return fmt.Sprintf(refinePromptTemplate, existingAnswer, contextStr, question)
}
