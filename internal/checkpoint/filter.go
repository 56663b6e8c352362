package checkpoint

import "strings"

// FilterStreamFrames reduces stored raw fragments to the readable
// conversation text. Fragments are expected to be event-stream frames
// ("event: ..." / "data: ..."); anything without either marker is dropped.
// Frames of type message_chunk are kept only when they carry a content,
// reasoning_content, or finish_reason field; all other frame types that pass
// the marker check are kept as-is. Survivors are concatenated in stored
// order with no separator.
func FilterStreamFrames(frames []string) string {
	var kept []string
	for _, frame := range frames {
		if !strings.Contains(frame, "event:") && !strings.Contains(frame, "data:") {
			continue
		}
		if strings.Contains(frame, "message_chunk") {
			if strings.Contains(frame, "content") ||
				strings.Contains(frame, "reasoning_content") ||
				strings.Contains(frame, "finish_reason") {
				kept = append(kept, frame)
			}
			continue
		}
		kept = append(kept, frame)
	}
	return strings.Join(kept, "")
}
