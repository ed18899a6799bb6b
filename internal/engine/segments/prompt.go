package segments

// classifyPrompt asks for labelled spans of a timestamped transcript.
// Args: label list, title, channel, description, extra context, hints, transcript.
const classifyPrompt = `You segment YouTube videos. Label the spans of the transcript below.

Allowed labels: %s

Video title: %s
Channel: %s
Description: %s
%s
Heuristic hints (advisory only, may be wrong):
%s

Respond with a JSON array only (no markdown):
[{"start": <seconds>, "end": <seconds>, "label": "<label>", "title": "<short title>", "description": "<one sentence>"}]

Rules:
- start and end are seconds from the transcript timestamps
- poi_highlight marks a single moment: end equals start
- leave ordinary content unlabelled; gaps are filled automatically
- do not invent spans the transcript does not support

Transcript:
%s`
