package planner

func directSearchPrompt(query string) string {
	return "Answer the following question using the results as they are more accurate coming from a search engine: " + query
}

func answerPrompt(query string) string {
	return "Answer the following question: " + query
}

// decompositionPrompt has no space after the colon, unlike answerPrompt.
func decompositionPrompt(query string) string {
	return "Answer the following question:" + query
}

func generalKnowledgePrompt(query string) string {
	return "Provide a general explanation for: " + query
}

func hybridPrompt(org, query, generalKnowledge string) string {
	return "Combine the following general knowledge with " + org + "-specific context to answer: " + query +
		"\nGeneral Knowledge: " + generalKnowledge
}
