package llm

// systemMessage is the fixed instruction block sent ahead of the extracted
// statement text. The response contract it describes is what DecodeResponse
// enforces.
const systemMessage = "You extract structured transaction data from bank or credit card statements.\n" +
	"The data below was extracted from a PDF by position-aware text extraction.\n\n" +
	"Task:\n" +
	"- Return a STRICT JSON object only (no comments, no trailing text).\n" +
	"- The object must have exactly two keys: \"transactions\" and \"confidence\".\n" +
	"- \"transactions\" is an array of objects with these fields:\n" +
	"  - \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"  - \"amount\": number, greater than zero\n" +
	"  - \"note\": string, the narration or description\n" +
	"  - \"txn_type\": string, \"CREDIT\" or \"DEBIT\"\n" +
	"  - \"reason\": string, why you chose this date, amount, note and type\n" +
	"- \"confidence\": number from 0 to 1 for the parsing of the entire input.\n\n" +
	"Rules:\n" +
	"- Do not guess missing or unclear values.\n" +
	"- If any field is ambiguous or incomplete, reduce the overall confidence accordingly.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n"

// BuildPrompt assembles the full prompt for one extracted content chunk.
func BuildPrompt(extractedContent string) string {
	return systemMessage + "\nStatement text:\n" + extractedContent
}
