package analyses

import "strings"

const uploadMarker = "--- Uploaded file"

// MergeDescription places the uploaded document ahead of the typed description.
// Non-empty sections are joined by a blank line.
func MergeDescription(description, fileText, fileName string) string {
	var parts []string
	if text := strings.TrimSpace(fileText); text != "" {
		header := uploadMarker + " ---"
		if name := strings.TrimSpace(fileName); name != "" {
			header = uploadMarker + ": " + name + " ---"
		}
		parts = append(parts, header+"\n\n"+text)
	}
	if d := strings.TrimSpace(description); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, "\n\n")
}
