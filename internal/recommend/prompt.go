package recommend

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/ai"
	"github.com/KaramelBytes/aistudio/internal/utils"
)

// descriptionTokenLimit bounds the user-supplied description in the prompt.
const descriptionTokenLimit = 512

const systemPrompt = `You are a machine learning consultant. Classify the user's project and suggest public datasets.
Respond with exactly one JSON object and nothing else, using this shape:
{"taskType": one of [%s],
 "requiredFeatures": [string],
 "idealDatasetSize": "small" | "medium" | "large",
 "domain": string,
 "confidence": number between 0 and 1,
 "recommendedDatasets": [{"name": string, "reason": string, "priority": integer}]}`

func buildPrompt(topic, description, hint string) []ai.Message {
	names := make([]string, len(TaskTypes))
	for i, t := range TaskTypes {
		names[i] = fmt.Sprintf("%q", t)
	}
	var user strings.Builder
	fmt.Fprintf(&user, "Project topic: %s\n", strings.TrimSpace(topic))
	if d := strings.TrimSpace(utils.TruncateToTokenLimit(description, descriptionTokenLimit)); d != "" {
		fmt.Fprintf(&user, "Description: %s\n", d)
	}
	if h := strings.TrimSpace(hint); h != "" {
		fmt.Fprintf(&user, "The user believes the task is: %s\n", h)
	}
	user.WriteString("Which task type fits, which features are required, and which datasets should they start from?")
	return []ai.Message{
		{Role: "system", Content: fmt.Sprintf(systemPrompt, strings.Join(names, ", "))},
		{Role: "user", Content: user.String()},
	}
}
