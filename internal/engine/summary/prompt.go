package summary

// summaryPrompt args: task, context block, length guide, language, transcript.
const summaryPrompt = `Role: You are an expert video summarizer.
Task: %s

Context:
%s
Constraints:
- Length: %s
- Language: %s
- Format: Markdown
- Reference key moments with their [m:ss] timestamps

Transcript:
%s`

var lengthGuide = map[string]string{
	LengthShort:  "Short (3-5 bullet points)",
	LengthMedium: "Medium (a short overview paragraph plus key points)",
	LengthLong:   "Long (section-by-section breakdown with timestamps)",
}
