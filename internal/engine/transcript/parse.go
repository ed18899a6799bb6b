package transcript

import (
	"bytes"
	"strings"
)

// Payload formats known to Parse.
const (
	KindJSON3 = "json3"
	KindXML   = "xml"
	KindVTT   = "vtt"
	KindTTML  = "ttml"
)

// Parse converts a caption payload using the declared content type (a MIME
// type or a timedtext fmt name) and falls back to sniffing. The first parser
// that yields segments wins; unrecognized input returns nil.
func Parse(contentType string, body []byte) []Segment {
	tried := make(map[string]bool, 4)
	order := append([]string{kindFromContentType(contentType), Sniff(body)}, KindJSON3, KindVTT, KindTTML, KindXML)
	for _, kind := range order {
		if kind == "" || tried[kind] {
			continue
		}
		tried[kind] = true
		if segs := parseKind(kind, body); len(segs) > 0 {
			return segs
		}
	}
	return nil
}

func parseKind(kind string, body []byte) []Segment {
	switch kind {
	case KindJSON3:
		return ParseJSON3(body)
	case KindVTT:
		return ParseVTT(body)
	case KindTTML:
		return ParseTTML(body)
	case KindXML:
		return ParseXML(body)
	}
	return nil
}

func kindFromContentType(ct string) string {
	ct = strings.ToLower(ct)
	switch {
	case ct == "":
		return ""
	case strings.Contains(ct, "json"):
		return KindJSON3
	case strings.Contains(ct, "vtt"):
		return KindVTT
	case strings.Contains(ct, "ttml"):
		return KindTTML
	case strings.Contains(ct, "xml") || strings.HasPrefix(ct, "srv"):
		return KindXML
	}
	return ""
}

// Sniff guesses the payload format from its leading bytes.
func Sniff(body []byte) string {
	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case bytes.HasPrefix(head, []byte("{")):
		return KindJSON3
	case bytes.HasPrefix(head, []byte("WEBVTT")):
		return KindVTT
	case bytes.Contains(head, []byte("<tt")):
		return KindTTML
	case bytes.Contains(head, []byte("<transcript")), bytes.Contains(head, []byte("<timedtext")):
		return KindXML
	}
	return ""
}
