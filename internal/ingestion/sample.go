package ingestion

import "github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"

const sampleText = "This is a sample PDF document used for demonstrating RAG.\n\n" +
	"The Eiffel Tower is located in Paris, France. It is one of the most famous landmarks in the world.\n\n" +
	"Weather information is often needed by travellers. The weather in Hyderabad can be very hot in the summer."

// SampleDocuments is indexed when no document is configured, so the assistant
// can answer something out of the box.
func SampleDocuments() []processing.Document {
	return []processing.Document{{Source: "sample", Page: 0, Text: sampleText}}
}
